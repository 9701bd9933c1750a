package main

import (
	"textgend/internal/generator"
	"textgend/internal/registry"
	"textgend/pkg/types"
)

// adminService exposes the generator and the models directory to the admin API.
type adminService struct {
	gen       *generator.Generator
	modelsDir string
}

func (a adminService) Status() types.StatusResponse { return a.gen.Status() }
func (a adminService) Ready() bool                  { return a.gen.Ready() }

// ListModels scans the models directory on every call; an unreadable
// directory lists nothing.
func (a adminService) ListModels() []types.Model {
	models, err := registry.LoadDir(a.modelsDir)
	if err != nil {
		return []types.Model{}
	}
	return models
}
