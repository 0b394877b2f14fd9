package dbinstance

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"DPDB/internal/application/service"
	"DPDB/internal/domain"
)

type DbInstanceHandler struct {
	updateInstancesService *service.UpdateInstancesService
}

func NewDbInstanceHandler(updateInstancesService *service.UpdateInstancesService) *DbInstanceHandler {
	return &DbInstanceHandler{
		updateInstancesService: updateInstancesService,
	}
}

func (h *DbInstanceHandler) UpdateDbInstances(w http.ResponseWriter, r *http.Request) {
	var instances []domain.DbInstance
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &instances); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count := h.updateInstancesService.Execute(instances)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Tracking %d replica instances", count)
}
