package service

import (
	"fmt"

	"DPDB/internal/domain"
)

type DeleteEntryService struct {
	repository domain.DbEntryRepository
}

func NewDeleteEntryService(repository domain.DbEntryRepository) *DeleteEntryService {
	return &DeleteEntryService{
		repository: repository,
	}
}

type DeleteEntryCommand struct {
	Key string
}

type DeleteEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *DeleteEntryService) Execute(command DeleteEntryCommand) DeleteEntryResult {
	entry, found := s.repository.Delete(command.Key)
	if !found {
		return DeleteEntryResult{
			Err: fmt.Errorf("entry with key %q not found in database", command.Key),
		}
	}
	return DeleteEntryResult{
		Entry: *entry,
	}
}
