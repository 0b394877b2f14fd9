package dbentry

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"DPDB/internal/application/service"
	"DPDB/internal/domain"

	"github.com/go-chi/chi/v5"
)

type DbEntryHandler struct {
	saveService     *service.SaveEntryService
	deleteService   *service.DeleteEntryService
	getService      *service.GetEntryService
	listKeysService *service.ListKeysService
	optimizeService *service.OptimizeService
}

type SaveEntryRequest struct {
	Value interface{} `json:"value"`
}

type EntryResponse struct {
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"value"`
}

type KeysResponse struct {
	Keys []string `json:"keys"`
}

func MapToEntryResponse(e domain.DbEntry) EntryResponse {
	return EntryResponse{
		Key:   e.Key(),
		Value: e.Value(),
	}
}

func NewDbEntryHandler(saveService *service.SaveEntryService,
	deleteService *service.DeleteEntryService,
	getService *service.GetEntryService,
	listKeysService *service.ListKeysService,
	optimizeService *service.OptimizeService) *DbEntryHandler {
	return &DbEntryHandler{
		saveService:     saveService,
		deleteService:   deleteService,
		getService:      getService,
		listKeysService: listKeysService,
		optimizeService: optimizeService,
	}
}

func (h *DbEntryHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	var request SaveEntryRequest
	if err := json.Unmarshal(body, &request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result := h.saveService.Execute(service.SaveEntryCommand{
		Key:   key,
		Value: request.Value,
	})
	if result.Err != nil {
		http.Error(w, result.Err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusCreated)
	output, _ := json.Marshal(MapToEntryResponse(result.Entry))
	fmt.Fprint(w, string(output))
}

func (h *DbEntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	result := h.getService.Execute(service.GetEntryQuery{
		Key: key,
	})
	if !result.Found {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "Not found")
		return
	}
	output, _ := json.Marshal(MapToEntryResponse(result.Entry))
	fmt.Fprint(w, string(output))
}

func (h *DbEntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	result := h.deleteService.Execute(service.DeleteEntryCommand{
		Key: key,
	})
	if result.Err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, result.Err.Error())
		return
	}
	output, _ := json.Marshal(MapToEntryResponse(result.Entry))
	fmt.Fprint(w, string(output))
}

func (h *DbEntryHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	result := h.listKeysService.Execute()
	output, _ := json.Marshal(KeysResponse{Keys: result.Keys})
	fmt.Fprint(w, string(output))
}

func (h *DbEntryHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	result := h.optimizeService.Execute()
	if result.Err != nil {
		http.Error(w, result.Err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Database optimized")
}
