package devbackend

import (
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/gin-gonic/gin"
)

type mockStore struct {
	putFn func(data []byte, contentType string, f model.Format) string
	getFn func(id string) ([]byte, string, error)
}

func (m *mockStore) Put(data []byte, contentType string, f model.Format) string {
	return m.putFn(data, contentType, f)
}

func (m *mockStore) Get(id string) ([]byte, string, error) {
	return m.getFn(id)
}

func init() {
	gin.SetMode(gin.TestMode)
}
