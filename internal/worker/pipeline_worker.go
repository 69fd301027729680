package worker

import (
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
)

// StartPipelineWorkers registers the background event handlers: the
// notification fan-out engine and the knowledge feedback loop.
func StartPipelineWorkers(notifications *service.NotificationService, knowledge *service.KnowledgeService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if knowledge != nil {
		knowledge.RegisterHandlers()
	}
}
