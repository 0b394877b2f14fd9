package service

import (
	"DPDB/internal/domain"
)

type SaveEntryService struct {
	repository domain.DbEntryRepository
}

func NewSaveEntryService(repository domain.DbEntryRepository) *SaveEntryService {
	return &SaveEntryService{
		repository: repository,
	}
}

type SaveEntryCommand struct {
	Key   string
	Value interface{}
}

type SaveEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *SaveEntryService) Execute(command SaveEntryCommand) SaveEntryResult {
	entry := domain.NewDbEntry(command.Key, command.Value)
	saved, err := s.repository.Save(entry)
	if err != nil {
		return SaveEntryResult{Err: err}
	}
	return SaveEntryResult{Entry: saved}
}
