package models

import (
	"errors"
	"fmt"
)

// OpKind tags the variant of an Operation. The set is closed: the applier
// and the policy engine both switch exhaustively over these values.
type OpKind string

const (
	OpAddNode         OpKind = "add_node"
	OpSetParams       OpKind = "set_params"
	OpConnect         OpKind = "connect"
	OpDisconnect      OpKind = "disconnect"
	OpDelete          OpKind = "delete"
	OpAnnotate        OpKind = "annotate"
	OpClearAnnotation OpKind = "clear_annotation"
)

// AllOpKinds lists every operation kind accepted on the wire.
var AllOpKinds = []OpKind{
	OpAddNode,
	OpSetParams,
	OpConnect,
	OpDisconnect,
	OpDelete,
	OpAnnotate,
	OpClearAnnotation,
}

// Operation shape errors.
var (
	ErrUnknownOpKind = errors.New("unknown operation kind")
	ErrMalformedOp   = errors.New("malformed operation")
)

// Operation is one graph mutation inside a batch. Exactly one kind is set;
// which payload fields are meaningful depends on Kind:
//
//	add_node          Node, optional InsertAt
//	set_params        NodeID, Parameters
//	connect           From, To, Index
//	disconnect        From, To, Index
//	delete            NodeID
//	annotate          NodeID, Text
//	clear_annotation  NodeID
//
// disconnect and clear_annotation exist so that every operation's inverse is
// itself an operation; callers may also submit them directly.
type Operation struct {
	Kind       OpKind         `json:"op"                   validate:"required"`
	Node       *Node          `json:"node,omitempty"`
	NodeID     string         `json:"node_id,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	From       string         `json:"from,omitempty"`
	To         string         `json:"to,omitempty"`
	Index      int            `json:"index,omitempty"`
	Text       string         `json:"text,omitempty"`

	// InsertAt places an added node at a specific position in the snapshot's
	// node list instead of appending. Node order is significant for stable
	// diffing, so the inverse of a delete carries the deleted node's position.
	InsertAt *int `json:"insert_at,omitempty"`
}

// Validate checks that the operation carries the payload its kind requires.
func (o Operation) Validate() error {
	switch o.Kind {
	case OpAddNode:
		if o.Node == nil {
			return fmt.Errorf("%w: %s requires a node payload", ErrMalformedOp, o.Kind)
		}

		if o.Node.ID == "" || o.Node.Type == "" {
			return fmt.Errorf("%w: %s node requires id and type", ErrMalformedOp, o.Kind)
		}

		if o.InsertAt != nil && *o.InsertAt < 0 {
			return fmt.Errorf("%w: %s insert_at must not be negative", ErrMalformedOp, o.Kind)
		}
	case OpSetParams:
		if o.NodeID == "" {
			return fmt.Errorf("%w: %s requires node_id", ErrMalformedOp, o.Kind)
		}

		if o.Parameters == nil {
			return fmt.Errorf("%w: %s requires parameters", ErrMalformedOp, o.Kind)
		}
	case OpConnect, OpDisconnect:
		if o.From == "" || o.To == "" {
			return fmt.Errorf("%w: %s requires from and to", ErrMalformedOp, o.Kind)
		}

		if o.Index < 0 {
			return fmt.Errorf("%w: %s index must not be negative", ErrMalformedOp, o.Kind)
		}
	case OpDelete, OpClearAnnotation:
		if o.NodeID == "" {
			return fmt.Errorf("%w: %s requires node_id", ErrMalformedOp, o.Kind)
		}
	case OpAnnotate:
		if o.NodeID == "" {
			return fmt.Errorf("%w: %s requires node_id", ErrMalformedOp, o.Kind)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOpKind, o.Kind)
	}

	return nil
}

// Connection returns the edge addressed by a connect or disconnect operation.
func (o Operation) Connection() Connection {
	return Connection{From: o.From, To: o.To, Index: o.Index}
}
