// Package codec encodes record sequences in a versioned, field-numbered
// format built on the protobuf wire encoding.
//
// A file is the magic prefix followed by one envelope message:
//
//	1 varint  schema version
//	2 bytes   kind ("expense" or "task")
//	3 bytes   record, repeated in sequence order
//
// Record fields are listed next to their encoders. Unknown fields are skipped
// so newer writers can add fields without breaking older readers.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"tracker/internal/core"
)

// Version is the schema version written by this package.
const Version = 1

const (
	KindExpense = "expense"
	KindTask    = "task"
)

var magic = []byte("TRKR")

var (
	ErrCorrupt            = errors.New("corrupt record data")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	ErrKindMismatch       = errors.New("record kind mismatch")
)

const (
	envVersion protowire.Number = 1
	envKind    protowire.Number = 2
	envRecord  protowire.Number = 3
)

// Expense fields.
const (
	expTitle       protowire.Number = 1
	expDescription protowire.Number = 2
	expAmount      protowire.Number = 3
	expCategory    protowire.Number = 4
	expSeconds     protowire.Number = 5
	expNanos       protowire.Number = 6
)

// Task fields. 4 is unused so timestamps share numbers with expenses.
const (
	taskTitle       protowire.Number = 1
	taskDescription protowire.Number = 2
	taskPriority    protowire.Number = 3
	taskSeconds     protowire.Number = 5
	taskNanos       protowire.Number = 6
)

// EncodeExpenses serializes expenses in order.
func EncodeExpenses(expenses []core.Expense) []byte {
	records := make([][]byte, 0, len(expenses))
	for _, e := range expenses {
		var b []byte
		b = appendString(b, expTitle, e.Title)
		b = appendString(b, expDescription, e.Description)
		b = protowire.AppendTag(b, expAmount, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(e.Amount))
		b = appendString(b, expCategory, e.Category)
		b = appendTime(b, expSeconds, expNanos, e.CreatedAt)
		records = append(records, b)
	}
	return encodeEnvelope(KindExpense, records)
}

// EncodeTasks serializes tasks in order.
func EncodeTasks(tasks []core.Task) []byte {
	records := make([][]byte, 0, len(tasks))
	for _, t := range tasks {
		var b []byte
		b = appendString(b, taskTitle, t.Title)
		b = appendString(b, taskDescription, t.Description)
		b = appendString(b, taskPriority, string(t.Priority))
		b = appendTime(b, taskSeconds, taskNanos, t.CreatedAt)
		records = append(records, b)
	}
	return encodeEnvelope(KindTask, records)
}

// DecodeExpenses parses data written by EncodeExpenses.
func DecodeExpenses(data []byte) ([]core.Expense, error) {
	records, err := decodeEnvelope(data, KindExpense)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(records))
	for i, rec := range records {
		var (
			e       core.Expense
			secs    int64
			nanos   int64
			decoder = fieldDecoder{buf: rec}
		)
		for decoder.next() {
			switch decoder.num {
			case expTitle:
				e.Title = decoder.text()
			case expDescription:
				e.Description = decoder.text()
			case expAmount:
				e.Amount = math.Float64frombits(decoder.fixed64())
			case expCategory:
				e.Category = decoder.text()
			case expSeconds:
				secs = protowire.DecodeZigZag(decoder.varint())
			case expNanos:
				nanos = int64(decoder.varint())
			default:
				decoder.skip()
			}
		}
		if decoder.err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, decoder.err)
		}
		e.CreatedAt = time.Unix(secs, nanos).UTC()
		out = append(out, e)
	}
	return out, nil
}

// DecodeTasks parses data written by EncodeTasks.
func DecodeTasks(data []byte) ([]core.Task, error) {
	records, err := decodeEnvelope(data, KindTask)
	if err != nil {
		return nil, err
	}
	out := make([]core.Task, 0, len(records))
	for i, rec := range records {
		var (
			t       core.Task
			secs    int64
			nanos   int64
			decoder = fieldDecoder{buf: rec}
		)
		for decoder.next() {
			switch decoder.num {
			case taskTitle:
				t.Title = decoder.text()
			case taskDescription:
				t.Description = decoder.text()
			case taskPriority:
				t.Priority = core.Priority(decoder.text())
			case taskSeconds:
				secs = protowire.DecodeZigZag(decoder.varint())
			case taskNanos:
				nanos = int64(decoder.varint())
			default:
				decoder.skip()
			}
		}
		if decoder.err != nil {
			return nil, fmt.Errorf("task %d: %w", i, decoder.err)
		}
		t.CreatedAt = time.Unix(secs, nanos).UTC()
		out = append(out, t)
	}
	return out, nil
}

func encodeEnvelope(kind string, records [][]byte) []byte {
	b := append([]byte(nil), magic...)
	b = protowire.AppendTag(b, envVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)
	b = appendString(b, envKind, kind)
	for _, rec := range records {
		b = protowire.AppendTag(b, envRecord, protowire.BytesType)
		b = protowire.AppendBytes(b, rec)
	}
	return b
}

func decodeEnvelope(data []byte, kind string) ([][]byte, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}

	var (
		version uint64
		gotKind string
		records [][]byte
		decoder = fieldDecoder{buf: data[len(magic):]}
	)
	for decoder.next() {
		switch decoder.num {
		case envVersion:
			version = decoder.varint()
		case envKind:
			gotKind = decoder.text()
		case envRecord:
			records = append(records, decoder.raw())
		default:
			decoder.skip()
		}
	}
	if decoder.err != nil {
		return nil, decoder.err
	}

	switch {
	case version == 0:
		return nil, fmt.Errorf("%w: missing schema version", ErrCorrupt)
	case version > Version:
		return nil, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, Version)
	case gotKind != kind:
		return nil, fmt.Errorf("%w: want %q, got %q", ErrKindMismatch, kind, gotKind)
	}
	return records, nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, secNum, nanoNum protowire.Number, t time.Time) []byte {
	b = protowire.AppendTag(b, secNum, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(t.Unix()))
	if ns := t.Nanosecond(); ns != 0 {
		b = protowire.AppendTag(b, nanoNum, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ns))
	}
	return b
}

// fieldDecoder walks the fields of one message. The first malformed field
// stops iteration and sets err.
type fieldDecoder struct {
	buf []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func (d *fieldDecoder) next() bool {
	if d.err != nil || len(d.buf) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return false
	}
	d.num, d.typ = num, typ
	d.buf = d.buf[n:]
	return true
}

func (d *fieldDecoder) varint() uint64 {
	if !d.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *fieldDecoder) fixed64() uint64 {
	if !d.expect(protowire.Fixed64Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed64(d.buf)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *fieldDecoder) raw() []byte {
	if !d.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return nil
	}
	d.buf = d.buf[n:]
	return v
}

func (d *fieldDecoder) text() string {
	return string(d.raw())
}

func (d *fieldDecoder) skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.buf)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return
	}
	d.buf = d.buf[n:]
}

func (d *fieldDecoder) expect(typ protowire.Type) bool {
	if d.err != nil {
		return false
	}
	if d.typ != typ {
		d.fail(fmt.Errorf("field %d: wire type %d, want %d", d.num, d.typ, typ))
		return false
	}
	return true
}

func (d *fieldDecoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
}
