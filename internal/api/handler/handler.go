package handler

import (
	"mentorchat/backend/internal/chathub"
	"mentorchat/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// Handler carries the hub and storage references for all HTTP routes.
type Handler struct {
	Hub     *chathub.ManagerService
	Storage storage.Storage
	Log     *logrus.Logger
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Hub: hub, Storage: s, Log: log}
}
