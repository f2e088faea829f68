package types

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
)

// PoolId identifies a named set of containers sharing a module. (major,
// minor) mirrors the C++ runtime's pair id; (0,0) is reserved for the
// built-in admin pool.
type PoolId struct {
	Major uint32
	Minor uint32
}

// AdminPoolId is the well-known pool hosting the admin container.
var AdminPoolId = PoolId{Major: 0, Minor: 0}

func (p PoolId) String() string {
	return fmt.Sprintf("%d.%d", p.Major, p.Minor)
}

// IsAdmin reports whether p is the reserved admin pool id.
func (p PoolId) IsAdmin() bool {
	return p == AdminPoolId
}

// MarshalText lets PoolId serve as a JSON object key (e.g. route
// directory snapshots) as well as a plain string field.
func (p PoolId) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the "major.minor" form produced by MarshalText.
func (p *PoolId) UnmarshalText(text []byte) error {
	var major, minor uint32
	if _, err := fmt.Sscanf(string(text), "%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("invalid pool id %q: %w", text, err)
	}
	p.Major, p.Minor = major, minor
	return nil
}

// ContainerId is local to a pool.
type ContainerId uint32

// WorkerId identifies a scheduler worker thread.
type WorkerId uint32

// LaneId is local to a (pool, container).
type LaneId uint32

// NodeId identifies a runtime node in a multi-node deployment.
type NodeId uint32

// TaskId is globally unique within a runtime.
type TaskId string

// NewTaskId generates a fresh globally-unique task id.
func NewTaskId() TaskId {
	return TaskId(uuid.NewString())
}

func (t TaskId) String() string { return string(t) }

// MethodId selects an operation on a container's method table. Ids 0..9
// are reserved for the lifecycle/monitor methods every module inherits;
// ids >= 10 are module-specific.
type MethodId uint32

const (
	MethodCreate    MethodId = 0
	MethodDestroy   MethodId = 1
	MethodMonitor   MethodId = 9
	MethodFirstUser MethodId = 10
)

// PoolQueryKind selects how a task's destination container is resolved.
type PoolQueryKind uint8

const (
	// PoolQueryLocal resolves to a container on the local node.
	PoolQueryLocal PoolQueryKind = iota
	// PoolQueryDynamic lets the runtime pick any reachable node.
	PoolQueryDynamic
	// PoolQuerySpecific pins the task to NodeID.
	PoolQuerySpecific
)

// PoolQuery is the routing hint carried by every task.
type PoolQuery struct {
	Kind   PoolQueryKind
	NodeID NodeId
}

// QueryLocal builds a PoolQuery that must resolve on this node.
func QueryLocal() PoolQuery { return PoolQuery{Kind: PoolQueryLocal} }

// QueryDynamic builds a PoolQuery that may resolve to any node.
func QueryDynamic() PoolQuery { return PoolQuery{Kind: PoolQueryDynamic} }

// QuerySpecific builds a PoolQuery pinned to a node.
func QuerySpecific(node NodeId) PoolQuery {
	return PoolQuery{Kind: PoolQuerySpecific, NodeID: node}
}

// Task is a discriminated unit of work routed to a container's method.
// Once enqueued it is owned by exactly one ingress lane until a worker
// claims it; once claimed, by exactly one worker until it completes,
// blocks on a co-primitive, or yields.
type Task struct {
	ID          TaskId
	PoolID      PoolId
	ContainerID ContainerId
	MethodID    MethodId
	Query       PoolQuery
	Payload     []byte
	FutureID    TaskId
	// LaneHint, if non-nil, overrides the hash(pool,container)-derived
	// lane assignment (explicit affinity, spec.md 4.B).
	LaneHint *LaneId
	// Replicated and Destination are carried with the task as data; no
	// code in this repository replicates a task or calls a module's
	// NewCopy/Aggregate.
	Replicated  bool
	Destination []NodeId
	SubmittedAt time.Time
}

// FutureState is the monotonic lifecycle of a Future: pending -> running
// -> {ready, error, cancelled}.
type FutureState int32

const (
	FuturePending FutureState = iota
	FutureRunning
	FutureReady
	FutureError
	FutureCancelled
)

func (s FutureState) String() string {
	switch s {
	case FuturePending:
		return "pending"
	case FutureRunning:
		return "running"
	case FutureReady:
		return "ready"
	case FutureError:
		return "error"
	case FutureCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a terminal state.
func (s FutureState) Terminal() bool {
	return s == FutureReady || s == FutureError || s == FutureCancelled
}

// Waker is invoked when a Future transitions to a terminal state while a
// co-primitive or a remote waiter is parked on it.
type Waker func()

// Future is the shared completion record created at task submission and
// observed by the submitter and, for co-primitive waits, by any number of
// parked tasks. It is reclaimed only after every waiter has observed the
// terminal state (reference counting is the caller's responsibility;
// ipc.Fabric.Forget drops a future from a fabric's table).
type Future struct {
	mu      sync.Mutex
	id      TaskId
	state   FutureState
	result  []byte
	err     *taxonomy.RuntimeError
	wakers  []Waker
	created time.Time
}

// NewFuture allocates a pending future for the given task id.
func NewFuture(id TaskId) *Future {
	return &Future{id: id, state: FuturePending, created: time.Now()}
}

// ID returns the id of the task this future belongs to.
func (f *Future) ID() TaskId { return f.id }

// State returns the current lifecycle state.
func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Running transitions pending -> running. It is a no-op if the future has
// already left pending (e.g. it was cancelled first).
func (f *Future) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FuturePending {
		return false
	}
	f.state = FutureRunning
	return true
}

// Complete transitions the future to ready and wakes every parked waiter.
func (f *Future) Complete(result []byte) {
	f.finish(FutureReady, result, nil)
}

// Fail transitions the future to error with the given taxonomy code.
func (f *Future) Fail(err *taxonomy.RuntimeError) {
	f.finish(FutureError, nil, err)
}

// Cancel transitions a pending future to cancelled. A future that has
// already begun running is left untouched: the running task observes
// cancellation only at its next co-primitive await (spec.md 5).
func (f *Future) Cancel() bool {
	f.mu.Lock()
	if f.state != FuturePending {
		f.mu.Unlock()
		return false
	}
	f.state = FutureCancelled
	wakers := f.wakers
	f.wakers = nil
	f.mu.Unlock()
	for _, w := range wakers {
		w()
	}
	return true
}

func (f *Future) finish(state FutureState, result []byte, err *taxonomy.RuntimeError) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}
	f.state = state
	f.result = result
	f.err = err
	wakers := f.wakers
	f.wakers = nil
	f.mu.Unlock()
	for _, w := range wakers {
		w()
	}
}

// AddWaker registers w to be invoked when the future reaches a terminal
// state. If the future is already terminal, w is invoked immediately and
// AddWaker returns false.
func (f *Future) AddWaker(w Waker) bool {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		w()
		return false
	}
	f.wakers = append(f.wakers, w)
	f.mu.Unlock()
	return true
}

// Poll returns the current state and, if terminal, the result/error.
func (f *Future) Poll() (FutureState, []byte, *taxonomy.RuntimeError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.result, f.err
}

// BdevType is the kind of block device a Target represents.
type BdevType string

const (
	BdevRam  BdevType = "ram"
	BdevFile BdevType = "file"
	BdevNvme BdevType = "nvme"
)

// TagId is a regex-indexable two-part tag identifier.
type TagId struct {
	Major uint32
	Minor uint32
}

func (t TagId) String() string { return fmt.Sprintf("%d.%d", t.Major, t.Minor) }

// Tag is a named, regex-addressable collection of blobs.
type Tag struct {
	ID   TagId
	Name string
	// Policy constrains which Target.BdevType chunks of this tag's
	// blobs may be placed on; empty means no constraint.
	Policy BdevType
}

// ChunkRef locates one chunk of a blob on a target. A chunk holds the
// bytes of one PutBlob call, so chunk lengths are not fixed.
type ChunkRef struct {
	TargetID string
	Offset   uint64 // offset within the blob
	Length   uint64
	Resident bool // false once evicted; metadata is retained
}

// Blob is an ordered list of chunks, in write order, placed across one
// or more targets. Its byte image is every chunk laid at its Offset,
// later chunks winning any overlap.
type Blob struct {
	TagID     TagId
	Name      string
	Size      uint64
	Score     float64 // in [0,1]; drives placement and eviction ordering
	Chunks    []ChunkRef
	CreatedAt time.Time
	AccessAt  time.Time
}

// Target is a registered block device backing blobs.
type Target struct {
	ID        string
	BdevType  BdevType
	Capacity  uint64
	Free      uint64
	PoolID    PoolId
}
