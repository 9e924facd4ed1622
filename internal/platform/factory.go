package platform

import (
	"github.com/veikko/jamb/pkg/core"
)

// New opens (or creates) a plan at uri and returns its domain service.
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}
	return core.NewService(repo), nil
}
