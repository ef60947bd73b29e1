package command

import "context"

// Variant selects how an adapter executes its command.
type Variant int

const (
	// VariantOperation builds one engine operation and keeps it for undo.
	VariantOperation Variant = iota

	// VariantQuery runs once, produces a result and is never recorded.
	VariantQuery

	// VariantSnapshot edits one metadata value directly, remembering the old
	// value for undo.
	VariantSnapshot
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case VariantOperation:
		return "operation"
	case VariantQuery:
		return "query"
	case VariantSnapshot:
		return "snapshot"
	}
	return "unknown"
}

// BuildFunc creates the engine operation for an extracted record.
type BuildFunc[R Record] func(ctx context.Context, rec R) (Operation, error)

// QueryFunc runs a non-undoable command and returns its result.
type QueryFunc[R Record] func(ctx context.Context, rec R) (string, error)

// SnapshotFunc names the metadata a snapshot command changes and the value to store.
type SnapshotFunc[R Record] func(ctx context.Context, rec R) (target MetadataTarget, key, value string, err error)

// Descriptor is the registry entry of one command type.
type Descriptor struct {
	Name    string
	Summary string
	Variant Variant

	// InvalidatesHistory is set on commands that replace document state
	// wholesale, after which recorded operations can no longer be replayed.
	InvalidatesHistory bool

	syntax  *Syntax
	newPlan func() plan
}

// Undoable reports whether invocations are recorded in history.
func (d Descriptor) Undoable() bool {
	return d.Variant != VariantQuery
}

// Syntax returns the flags the command accepts.
func (d Descriptor) Syntax() *Syntax {
	return d.syntax
}

// plan binds a fresh argument record to the functions acting on it.
type plan struct {
	record   Record
	build    func(ctx context.Context) (Operation, error)
	query    func(ctx context.Context) (string, error)
	snapshot func(ctx context.Context) (MetadataTarget, string, string, error)
}

// Option configures a Descriptor.
type Option func(*Descriptor)

// WithSummary sets the one-line help text of the command.
func WithSummary(summary string) Option {
	return func(d *Descriptor) {
		d.Summary = summary
	}
}

// InvalidatesHistory marks the command as clearing undo history when it succeeds.
func InvalidatesHistory() Option {
	return func(d *Descriptor) {
		d.InvalidatesHistory = true
	}
}

// Define describes an undoable command whose record of type R is turned into
// an engine operation by build. newRecord is called once to derive the syntax
// and once per invocation.
func Define[R Record](name string, newRecord func() R, build BuildFunc[R], opts ...Option) Descriptor {
	return define(name, VariantOperation, newRecord, func(rec R) plan {
		return plan{record: rec, build: func(ctx context.Context) (Operation, error) { return build(ctx, rec) }}
	}, opts)
}

// DefineQuery describes a non-undoable command.
func DefineQuery[R Record](name string, newRecord func() R, query QueryFunc[R], opts ...Option) Descriptor {
	return define(name, VariantQuery, newRecord, func(rec R) plan {
		return plan{record: rec, query: func(ctx context.Context) (string, error) { return query(ctx, rec) }}
	}, opts)
}

// DefineSnapshot describes an undoable command that edits one metadata value.
func DefineSnapshot[R Record](name string, newRecord func() R, snap SnapshotFunc[R], opts ...Option) Descriptor {
	return define(name, VariantSnapshot, newRecord, func(rec R) plan {
		return plan{record: rec, snapshot: func(ctx context.Context) (MetadataTarget, string, string, error) { return snap(ctx, rec) }}
	}, opts)
}

func define[R Record](name string, variant Variant, newRecord func() R, bind func(R) plan, opts []Option) Descriptor {
	syntax := NewSyntax()
	newRecord().DeclareSyntax(syntax)
	d := Descriptor{
		Name:    name,
		Variant: variant,
		syntax:  syntax,
		newPlan: func() plan { return bind(newRecord()) },
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
