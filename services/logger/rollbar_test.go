package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mwalimu/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{std: log.New(&bytes.Buffer{}, "", 0)}
	err := errors.New("boom")
	req := core.RequestInfo{ID: "req-1", Method: "GET", Path: "/v1/kids", Parent: true}

	got := l.prepare("failed", []interface{}{err, req, core.RequestInfo{ID: "req-2"}})
	assert.Equal(t, []interface{}{
		"failed",
		err,
		map[string]interface{}{"request_id": "req-1", "method": "GET", "path": "/v1/kids"},
	}, got, "only the first request is kept")

	assert.Equal(t, []interface{}{"plain"}, l.prepare("plain", nil))
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := RollbarLogger{std: log.New(&buf, "", 0)}

	l.print("getting active task", []interface{}{errors.New("timeout")})
	assert.Equal(t, "getting active task\ntimeout\n", buf.String())
}
