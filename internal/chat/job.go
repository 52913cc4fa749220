package chat

import (
	"encoding/json"
	"errors"
)

// MaxArchiveAttempts bounds redeliveries through the retry queue before a
// message is dead-lettered.
const MaxArchiveAttempts = 3

var ErrBadJob = errors.New("chat: malformed archive job")

// ArchiveJob is the queue payload carrying one transcript to the worker.
type ArchiveJob struct {
	Transcript Transcript `json:"transcript"`
	Attempt    int        `json:"attempt"`
}

func EncodeJob(j ArchiveJob) ([]byte, error) {
	return json.Marshal(j)
}

func DecodeJob(b []byte) (ArchiveJob, error) {
	var j ArchiveJob
	if err := json.Unmarshal(b, &j); err != nil {
		return ArchiveJob{}, errors.Join(ErrBadJob, err)
	}
	if j.Transcript.ID == "" || j.Transcript.SessionKey == "" {
		return ArchiveJob{}, ErrBadJob
	}
	return j, nil
}

// Retryable reports whether another delivery attempt is allowed.
func (j ArchiveJob) Retryable() bool {
	return j.Attempt+1 < MaxArchiveAttempts
}
