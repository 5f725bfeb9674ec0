// internal/handlers/checkout_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext() *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c
}

func TestResolveBuyerEmailAnonymousUsesBody(t *testing.T) {
	c := newTestContext()

	assert.Equal(t, "guest@example.com", resolveBuyerEmail(c, "guest@example.com"))
}

func TestResolveBuyerEmailAnonymousWithoutBodyIsEmpty(t *testing.T) {
	c := newTestContext()

	assert.Equal(t, "", resolveBuyerEmail(c, ""))
}

func TestResolveBuyerEmailSessionWinsOverBody(t *testing.T) {
	c := newTestContext()
	c.Set("user_email", "account@example.com")

	assert.Equal(t, "account@example.com", resolveBuyerEmail(c, "someone-else@example.com"))
}

func TestResolveBuyerEmailSessionWinsWhenBodyEmpty(t *testing.T) {
	c := newTestContext()
	c.Set("user_email", "account@example.com")

	assert.Equal(t, "account@example.com", resolveBuyerEmail(c, ""))
}
