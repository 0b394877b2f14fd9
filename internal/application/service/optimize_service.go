package service

import (
	"log"

	"DPDB/internal/domain"
)

type OptimizeService struct {
	repository domain.DbEntryRepository
}

func NewOptimizeService(repository domain.DbEntryRepository) *OptimizeService {
	return &OptimizeService{
		repository: repository,
	}
}

type OptimizeResult struct {
	Err error
}

func (s *OptimizeService) Execute() OptimizeResult {
	if err := s.repository.Optimize(); err != nil {
		log.Println("Database optimization failed:", err)
		return OptimizeResult{Err: err}
	}
	log.Println("Database optimized")
	return OptimizeResult{}
}
