package quizforge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Persister is the storage the history is flushed to. Every mutation writes
// the affected list in full.
type Persister interface {
	SaveResults(results []QuizResult) error
	LoadResults() ([]QuizResult, error)
	SaveFolders(folders []Folder) error
	LoadFolders() ([]Folder, error)
}

// SortKey orders results in the history view.
type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByScore SortKey = "score"
	SortByTopic SortKey = "topic"
)

// HistoryStore holds the process-wide result and folder lists. It is loaded
// once at startup and persisted on every mutation. The uncategorized sentinel
// folder always exists and cannot be removed, only emptied.
type HistoryStore struct {
	persister Persister
	results   []QuizResult
	folders   []Folder
}

// NewHistoryStore loads the history and guarantees the sentinel folder.
func NewHistoryStore(persister Persister) (*HistoryStore, error) {
	results, err := persister.LoadResults()
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	folders, err := persister.LoadFolders()
	if err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}

	hs := &HistoryStore{persister: persister, results: results, folders: folders}
	if hs.folderByID(UncategorizedFolderID) == nil {
		hs.folders = append([]Folder{{ID: UncategorizedFolderID, Name: UncategorizedFolderName}}, hs.folders...)
		if err := persister.SaveFolders(hs.folders); err != nil {
			return nil, fmt.Errorf("failed to save folders: %w", err)
		}
	}
	return hs, nil
}

// Add appends a completed result to the history.
func (hs *HistoryStore) Add(result QuizResult) error {
	if result.FolderID == "" {
		result.FolderID = UncategorizedFolderID
	}
	if hs.folderByID(result.FolderID) == nil {
		return fmt.Errorf("folder not found: %s", result.FolderID)
	}
	hs.results = append(hs.results, result)
	return hs.saveResults()
}

// Results returns a copy of all stored results in insertion order.
// Most-recent-first is a display concern; use SortResults for that.
func (hs *HistoryStore) Results() []QuizResult {
	return append([]QuizResult(nil), hs.results...)
}

// Folders returns a copy of all folders, sentinel first.
func (hs *HistoryStore) Folders() []Folder {
	return append([]Folder(nil), hs.folders...)
}

// CreateFolder adds a new named folder and returns it.
func (hs *HistoryStore) CreateFolder(name string) (Folder, error) {
	folder := Folder{ID: uuid.NewString(), Name: name}
	hs.folders = append(hs.folders, folder)
	if err := hs.saveFolders(); err != nil {
		return Folder{}, err
	}
	return folder, nil
}

// MoveResult reassigns a result to a folder. Moving to a folder id that does
// not exist is rejected.
func (hs *HistoryStore) MoveResult(resultID, folderID string) error {
	if hs.folderByID(folderID) == nil {
		return fmt.Errorf("folder not found: %s", folderID)
	}
	for i := range hs.results {
		if hs.results[i].ID == resultID {
			hs.results[i].FolderID = folderID
			return hs.saveResults()
		}
	}
	return fmt.Errorf("result not found: %s", resultID)
}

// EmptyFolder reassigns every result in a folder to the uncategorized
// sentinel. The folder itself is kept; folders are never deleted.
func (hs *HistoryStore) EmptyFolder(folderID string) error {
	if hs.folderByID(folderID) == nil {
		return fmt.Errorf("folder not found: %s", folderID)
	}
	changed := false
	for i := range hs.results {
		if hs.results[i].FolderID == folderID {
			hs.results[i].FolderID = UncategorizedFolderID
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return hs.saveResults()
}

// SetTags replaces a result's tags wholesale, keyed by its id.
func (hs *HistoryStore) SetTags(resultID string, tags []string) error {
	for i := range hs.results {
		if hs.results[i].ID == resultID {
			hs.results[i].Tags = append([]string(nil), tags...)
			return hs.saveResults()
		}
	}
	return fmt.Errorf("result not found: %s", resultID)
}

// ResultsInFolder returns the results assigned to a folder, insertion order.
func (hs *HistoryStore) ResultsInFolder(folderID string) []QuizResult {
	var out []QuizResult
	for _, r := range hs.results {
		if r.FolderID == folderID {
			out = append(out, r)
		}
	}
	return out
}

// Search returns results whose topic or tags contain the query,
// case-insensitively. An empty query matches everything.
func (hs *HistoryStore) Search(query string) []QuizResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return hs.Results()
	}
	var out []QuizResult
	for _, r := range hs.results {
		if strings.Contains(strings.ToLower(r.Quiz.Topic), query) {
			out = append(out, r)
			continue
		}
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Retake returns the owned quiz and settings snapshot of a stored result, so
// the caller can start a new session on the exact original quiz.
func (hs *HistoryStore) Retake(resultID string) (Quiz, QuizSettings, error) {
	for _, r := range hs.results {
		if r.ID == resultID {
			return r.Quiz, r.Settings, nil
		}
	}
	return Quiz{}, QuizSettings{}, fmt.Errorf("result not found: %s", resultID)
}

// SortResults orders a result list by the given key: date and score descend
// (newest and best first), topic ascends.
func SortResults(results []QuizResult, key SortKey) {
	switch key {
	case SortByScore:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	case SortByTopic:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Quiz.Topic) < strings.ToLower(results[j].Quiz.Topic)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		})
	}
}

func (hs *HistoryStore) folderByID(id string) *Folder {
	for i := range hs.folders {
		if hs.folders[i].ID == id {
			return &hs.folders[i]
		}
	}
	return nil
}

func (hs *HistoryStore) saveResults() error {
	if err := hs.persister.SaveResults(hs.results); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}

func (hs *HistoryStore) saveFolders() error {
	if err := hs.persister.SaveFolders(hs.folders); err != nil {
		return fmt.Errorf("failed to save folders: %w", err)
	}
	return nil
}
