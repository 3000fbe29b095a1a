/*
	Project: Mwalimu - homework planner for parents (ref: https://gemini.google.com/)
	Target: primary school kids, one household per install
*/
package mwalimu

/*
TODO: rate limit PIN attempts on POST /v1/auth/pin
TODO: recurring tasks: create the next occurrence when a daily/weekly/monthly task is completed
TODO: admin: sync the local store up to Supabase once credentials are configured

FE: kid dashboard
	- today's active task with its checklist
	- progress bar + reward points

------------------------------------ Version X ----------------------------------------
- multiple households ??? (Settings per household, PIN per parent)
- offline edits while the hosted backend is down: replay them on reconnect ???
*/
