// Package issuestore is a JSONL-backed issue and dependency store with
// lock-file mutual exclusion and an atomic claim-next operation. It also
// adapts issues into fiber signatures, which is how the verification
// kernel sees issue state.
package issuestore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/workingdoge/premath-sub002/pkg/contenthash"
	"github.com/workingdoge/premath-sub002/pkg/fiber"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

type Dep struct {
	IssueID string         `json:"issue_id"`
	Kind    fiber.EdgeKind `json:"kind"`
}

type Issue struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	Priority  int    `json:"priority"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
	MolType   string `json:"mol_type,omitempty"`
	Assignee  string `json:"assignee,omitempty"`
	Deps      []Dep  `json:"deps,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

var (
	ErrNothingClaimable = errors.New("no claimable issue")
	ErrLocked           = errors.New("store is locked by another process")
)

// Store reads and rewrites one JSONL file, one issue per line.
type Store struct {
	path     string
	lockPath string

	// LockRetries and LockBackoff govern lock acquisition. StaleAfter
	// allows takeover of a lock file whose owner died.
	LockRetries int
	LockBackoff time.Duration
	StaleAfter  time.Duration
}

func Open(path string) *Store {
	return &Store{
		path:        path,
		lockPath:    path + ".lock",
		LockRetries: 20,
		LockBackoff: 25 * time.Millisecond,
		StaleAfter:  30 * time.Second,
	}
}

// Load reads every issue in file order. A missing file is an empty store.
func (s *Store) Load() ([]Issue, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Issue
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var iss Issue
		if err := json.Unmarshal(raw, &iss); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, line, err)
		}
		out = append(out, iss)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Append adds one issue under the lock, assigning an id when empty.
func (s *Store) Append(iss Issue) (Issue, error) {
	unlock, err := s.lock()
	if err != nil {
		return Issue{}, err
	}
	defer unlock()

	if iss.ID == "" {
		iss.ID = "iss_" + uuid.NewString()
	}
	if iss.Status == "" {
		iss.Status = StatusOpen
	}
	iss.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Issue{}, err
	}
	defer f.Close()
	b, err := json.Marshal(iss)
	if err != nil {
		return Issue{}, err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return Issue{}, err
	}
	return iss, nil
}

// ClaimNext atomically claims the highest-priority open issue with no
// blocking dependency on a non-closed issue, marking it in_progress for
// agentID. Priority orders ascending (0 first), ties break by id.
func (s *Store) ClaimNext(agentID string) (Issue, error) {
	unlock, err := s.lock()
	if err != nil {
		return Issue{}, err
	}
	defer unlock()

	issues, err := s.Load()
	if err != nil {
		return Issue{}, err
	}
	byID := make(map[string]*Issue, len(issues))
	for i := range issues {
		byID[issues[i].ID] = &issues[i]
	}

	candidates := make([]*Issue, 0, len(issues))
	for i := range issues {
		iss := &issues[i]
		if iss.Status != StatusOpen {
			continue
		}
		if blockedBy(iss, byID) {
			continue
		}
		candidates = append(candidates, iss)
	}
	if len(candidates) == 0 {
		return Issue{}, ErrNothingClaimable
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].ID < candidates[j].ID
	})

	claimed := candidates[0]
	claimed.Status = StatusInProgress
	claimed.Assignee = agentID
	claimed.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.rewrite(issues); err != nil {
		return Issue{}, err
	}
	return *claimed, nil
}

func blockedBy(iss *Issue, byID map[string]*Issue) bool {
	for _, d := range iss.Deps {
		if !d.Kind.IsBlocking() {
			continue
		}
		dep, ok := byID[d.IssueID]
		if !ok {
			// Unknown blocker: treat as unresolved.
			return true
		}
		if dep.Status != StatusClosed {
			return true
		}
	}
	return false
}

// rewrite replaces the file contents via rename for atomicity, preserving
// issue order.
func (s *Store) rewrite(issues []Issue) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".issues-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, iss := range issues {
		b, err := json.Marshal(iss)
		if err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// lock acquires the lock file with O_EXCL, retrying with backoff and
// taking over locks older than StaleAfter.
func (s *Store) lock() (func(), error) {
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return func() { os.Remove(s.lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if st, serr := os.Stat(s.lockPath); serr == nil && time.Since(st.ModTime()) > s.StaleAfter {
			os.Remove(s.lockPath)
			continue
		}
		if attempt >= s.LockRetries {
			return nil, ErrLocked
		}
		time.Sleep(s.LockBackoff)
	}
}

// FiberForIssue builds the kernel's view of an issue. The content hash
// field order is fixed: id, title, status, priority. Changing this order
// changes every persisted fingerprint, so treat it as a wire contract.
func FiberForIssue(iss Issue, contextID string) fiber.FiberSignature {
	content := contenthash.NewBuilder().
		Field("id", iss.ID).
		Field("title", iss.Title).
		Field("status", string(iss.Status)).
		FieldInt("priority", int64(iss.Priority)).
		Finish()
	edges := make([]fiber.Edge, 0, len(iss.Deps))
	for _, d := range iss.Deps {
		edges = append(edges, fiber.Edge{Target: d.IssueID, Kind: d.Kind})
	}
	phase := fiber.Phase{
		Kind:      "issue",
		Ephemeral: iss.Ephemeral,
		Status:    phaseStatus(iss.Status),
		MolType:   iss.MolType,
	}
	sig := fiber.NewSignature(iss.ID, contextID, content, edges, phase)
	if iss.Assignee != "" {
		sig = sig.WithAgent(iss.Assignee)
	}
	return sig
}

// phaseStatus collapses claim bookkeeping out of the phase: open and
// in_progress issues occupy the same lifecycle phase, so two agents
// observing the same issue before and after a claim still agree.
func phaseStatus(s Status) string {
	if s == StatusInProgress {
		return string(StatusOpen)
	}
	return string(s)
}

// BlockingDeps returns the blocking-dependency adapter the descent
// locality check consumes.
func BlockingDeps(issues []Issue) func(id string) []string {
	deps := make(map[string][]string, len(issues))
	for _, iss := range issues {
		for _, d := range iss.Deps {
			if d.Kind.IsBlocking() {
				deps[iss.ID] = append(deps[iss.ID], d.IssueID)
			}
		}
	}
	for id := range deps {
		sort.Strings(deps[id])
	}
	return func(id string) []string { return deps[id] }
}

// WaveID derives a stable cover id for a wave index.
func WaveID(contextID string, wave int) string {
	return contextID + "/wave-" + strconv.Itoa(wave)
}
