package quizforge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPersister keeps the blobs in memory and counts writes.
type memoryPersister struct {
	results     []QuizResult
	folders     []Folder
	resultSaves int
	folderSaves int
}

func (m *memoryPersister) SaveResults(results []QuizResult) error {
	m.results = append([]QuizResult(nil), results...)
	m.resultSaves++
	return nil
}

func (m *memoryPersister) LoadResults() ([]QuizResult, error) {
	return append([]QuizResult(nil), m.results...), nil
}

func (m *memoryPersister) SaveFolders(folders []Folder) error {
	m.folders = append([]Folder(nil), folders...)
	m.folderSaves++
	return nil
}

func (m *memoryPersister) LoadFolders() ([]Folder, error) {
	return append([]Folder(nil), m.folders...), nil
}

func sampleResult(id, topic string, score int, created time.Time) QuizResult {
	return QuizResult{
		ID:        id,
		Quiz:      Quiz{Topic: topic, Questions: []Question{{Text: "q", Type: TypeFillInBlank, Options: []string{}, CorrectAnswer: "a"}}},
		Settings:  QuizSettings{Topic: topic, NumQuestions: 1, QuestionType: SettingsFillInBlank, Difficulty: DifficultyEasy, DurationMinutes: 1},
		Score:     score,
		FolderID:  UncategorizedFolderID,
		Tags:      []string{},
		CreatedAt: created,
	}
}

func TestNewHistoryStoreCreatesSentinelFolder(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)

	folders := hs.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, UncategorizedFolderID, folders[0].ID)
	assert.Equal(t, UncategorizedFolderName, folders[0].Name)
	assert.Equal(t, 1, persister.folderSaves, "sentinel creation is persisted")
}

func TestNewHistoryStoreKeepsExistingSentinel(t *testing.T) {
	persister := &memoryPersister{folders: []Folder{
		{ID: UncategorizedFolderID, Name: UncategorizedFolderName},
		{ID: "f1", Name: "Science"},
	}}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)

	assert.Len(t, hs.Folders(), 2)
	assert.Equal(t, 0, persister.folderSaves)
}

func TestAddPersistsOnEveryMutation(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)

	require.NoError(t, hs.Add(sampleResult("r1", "Go", 1, time.Now())))
	require.NoError(t, hs.Add(sampleResult("r2", "Rome", 0, time.Now())))

	assert.Equal(t, 2, persister.resultSaves)
	assert.Len(t, persister.results, 2, "the full list is written each time")
}

func TestMoveResult(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)
	require.NoError(t, hs.Add(sampleResult("r1", "Go", 1, time.Now())))

	folder, err := hs.CreateFolder("Programming")
	require.NoError(t, err)

	require.NoError(t, hs.MoveResult("r1", folder.ID))
	assert.Equal(t, folder.ID, hs.Results()[0].FolderID)

	t.Run("unknown folder is rejected", func(t *testing.T) {
		err := hs.MoveResult("r1", "no-such-folder")
		require.Error(t, err)
		assert.Equal(t, folder.ID, hs.Results()[0].FolderID, "rejected move changes nothing")
	})

	t.Run("unknown result is rejected", func(t *testing.T) {
		assert.Error(t, hs.MoveResult("no-such-result", folder.ID))
	})
}

func TestEmptyFolderReassignsToSentinel(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)

	folder, err := hs.CreateFolder("Science")
	require.NoError(t, err)

	r := sampleResult("r1", "Biology", 1, time.Now())
	r.FolderID = folder.ID
	require.NoError(t, hs.Add(r))
	require.NoError(t, hs.Add(sampleResult("r2", "Go", 1, time.Now())))

	require.NoError(t, hs.EmptyFolder(folder.ID))

	assert.Empty(t, hs.ResultsInFolder(folder.ID))
	assert.Len(t, hs.ResultsInFolder(UncategorizedFolderID), 2)

	// The folder itself survives; folders are never deleted.
	assert.Len(t, hs.Folders(), 2)
}

func TestSetTagsReplacesWholesale(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)
	require.NoError(t, hs.Add(sampleResult("r1", "Go", 1, time.Now())))

	require.NoError(t, hs.SetTags("r1", []string{"study", "exam"}))
	assert.Equal(t, []string{"study", "exam"}, hs.Results()[0].Tags)

	require.NoError(t, hs.SetTags("r1", []string{"revision"}))
	assert.Equal(t, []string{"revision"}, hs.Results()[0].Tags)

	assert.Error(t, hs.SetTags("missing", []string{"x"}))
}

func TestSearchMatchesTopicAndTags(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)

	require.NoError(t, hs.Add(sampleResult("r1", "Photosynthesis", 1, time.Now())))
	require.NoError(t, hs.Add(sampleResult("r2", "Roman Empire", 0, time.Now())))
	require.NoError(t, hs.SetTags("r2", []string{"history", "exam-prep"}))

	assert.Len(t, hs.Search("photo"), 1)
	assert.Len(t, hs.Search("EXAM"), 1)
	assert.Len(t, hs.Search(""), 2)
	assert.Empty(t, hs.Search("chemistry"))
}

func TestRetakeReturnsOwnedSnapshot(t *testing.T) {
	persister := &memoryPersister{}
	hs, err := NewHistoryStore(persister)
	require.NoError(t, err)
	require.NoError(t, hs.Add(sampleResult("r1", "Go", 1, time.Now())))

	quiz, settings, err := hs.Retake("r1")
	require.NoError(t, err)
	assert.Equal(t, "Go", quiz.Topic)
	assert.Equal(t, 1, settings.NumQuestions)

	_, _, err = hs.Retake("missing")
	assert.Error(t, err)
}

func TestSortResults(t *testing.T) {
	now := time.Now()
	results := []QuizResult{
		sampleResult("r1", "Zebra", 1, now.Add(-2*time.Hour)),
		sampleResult("r2", "Apple", 3, now.Add(-1*time.Hour)),
		sampleResult("r3", "Mango", 2, now),
	}

	SortResults(results, SortByDate)
	assert.Equal(t, []string{"r3", "r2", "r1"}, ids(results))

	SortResults(results, SortByScore)
	assert.Equal(t, []string{"r2", "r3", "r1"}, ids(results))

	SortResults(results, SortByTopic)
	assert.Equal(t, []string{"r2", "r3", "r1"}, ids(results))
}

func ids(results []QuizResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
