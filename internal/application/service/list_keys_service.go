package service

import (
	"DPDB/internal/domain"
)

type ListKeysService struct {
	repository domain.DbEntryRepository
}

func NewListKeysService(repository domain.DbEntryRepository) *ListKeysService {
	return &ListKeysService{
		repository: repository,
	}
}

type ListKeysResult struct {
	Keys []string
}

func (s *ListKeysService) Execute() ListKeysResult {
	return ListKeysResult{Keys: s.repository.Keys()}
}
