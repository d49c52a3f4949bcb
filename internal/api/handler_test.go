package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"billiard-pos/internal/notify"
	"billiard-pos/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeSubscriber struct {
	ch chan notify.Event
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) (<-chan notify.Event, func()) {
	return f.ch, func() {}
}

func TestEventsStream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sub := &fakeSubscriber{ch: make(chan notify.Event, 2)}
	sub.ch <- notify.EventTablesChanged
	sub.ch <- notify.EventTillChanged
	close(sub.ch)

	h := &Handler{subscriber: sub, logger: util.GetLogger()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/events", nil)

	// Channel is closed after two events, so the stream drains and ends.
	h.events(c)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "tables_changed")
	assert.Contains(t, body, "till_changed")
}
