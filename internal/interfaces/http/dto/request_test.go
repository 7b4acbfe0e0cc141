package dto

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		name     string
		in       PageRequest
		page     int
		pageSize int
	}{
		{"zero values", PageRequest{}, 1, 20},
		{"negative", PageRequest{Page: -3, PageSize: -1}, 1, 20},
		{"over max", PageRequest{Page: 2, PageSize: 500}, 2, 100},
		{"normal", PageRequest{Page: 3, PageSize: 50}, 3, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			assert.Equal(t, tc.page, tc.in.Page)
			assert.Equal(t, tc.pageSize, tc.in.PageSize)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	r := PageRequest{Page: 3, PageSize: 20}
	assert.Equal(t, 40, r.Offset())
	assert.Equal(t, 20, r.Limit())
}

func TestBindPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/projects?page=2&page_size=30", nil)
	req := BindPage(c)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 30, req.PageSize)

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("GET", "/v1/projects?page=abc&page_size=-5", nil)
	req2 := BindPage(c2)
	assert.Equal(t, 1, req2.Page)
	assert.Equal(t, 20, req2.PageSize)
}
