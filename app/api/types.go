package api

import (
	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feedback"
	"github.com/personaflow/personaflow/app/pipeline"
)

// PipelineController exposes run state for the stats endpoint.
type PipelineController interface {
	State() pipeline.State
	LastRun() *pipeline.RunStats
}

var _ PipelineController = (*pipeline.Orchestrator)(nil)

// RunTrigger requests an out-of-schedule pipeline run.
type RunTrigger interface {
	Trigger()
}

type Handler struct {
	sourceRepo   database.SourceRepository
	articleRepo  database.ArticleRepository
	queueRepo    database.QueueRepository
	settingsRepo database.SettingsRepository
	feedback     *feedback.Service
	controller   PipelineController
	trigger      RunTrigger
}

type feedActionRequest struct {
	ArticleID string `json:"article_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

type createSourceRequest struct {
	URL  string `json:"url" binding:"required"`
	Kind string `json:"kind" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type updateSourceRequest struct {
	URL     *string `json:"url"`
	Kind    *string `json:"kind"`
	Name    *string `json:"name"`
	Enabled *bool   `json:"enabled"`
}

type promptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}
