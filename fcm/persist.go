package fcm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorruptModel is returned when persisted model state cannot be decoded.
var ErrCorruptModel = errors.New("fcm: corrupt model")

// snapshot is the complete trained state of a model, independent of the
// on-disk format.
type snapshot[S comparable] struct {
	order    int
	alpha    float64
	symbols  []S
	window   []S
	contexts []contextSnapshot[S]
}

type contextSnapshot[S comparable] struct {
	context []S
	next    []Count[S]
}

func (m *Model[S]) snapshot() snapshot[S] {
	snap := snapshot[S]{
		order:   m.order,
		alpha:   m.alpha,
		symbols: m.Symbols(),
		window:  m.Window(),
	}
	m.Each(func(ctx []S, next []Count[S]) {
		snap.contexts = append(snap.contexts, contextSnapshot[S]{context: ctx, next: next})
	})
	return snap
}

// restore rebuilds a model from a snapshot, rejecting inconsistent state.
func restore[S comparable](snap snapshot[S], codec Codec[S]) (*Model[S], error) {
	m, err := New(snap.order, snap.alpha, codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	for _, s := range snap.symbols {
		if _, dup := m.seen[s]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrCorruptModel, codec.Format(s))
		}
		m.see(s)
	}
	if len(snap.window) > snap.order {
		return nil, fmt.Errorf("%w: window holds %d symbols, order is %d", ErrCorruptModel, len(snap.window), snap.order)
	}
	m.window.Reset(snap.window)

	for _, c := range snap.contexts {
		if len(c.context) != snap.order {
			return nil, fmt.Errorf("%w: context of length %d, order is %d", ErrCorruptModel, len(c.context), snap.order)
		}
		if m.entryFor(c.context, false) != nil {
			return nil, fmt.Errorf("%w: duplicate context", ErrCorruptModel)
		}
		e := m.entryFor(c.context, true)
		for _, n := range c.next {
			if n.Count == 0 {
				return nil, fmt.Errorf("%w: zero count", ErrCorruptModel)
			}
			if _, ok := m.seen[n.Symbol]; !ok {
				return nil, fmt.Errorf("%w: symbol %q missing from alphabet", ErrCorruptModel, codec.Format(n.Symbol))
			}
			if _, dup := e.index[n.Symbol]; dup {
				return nil, fmt.Errorf("%w: duplicate count for %q", ErrCorruptModel, codec.Format(n.Symbol))
			}
			e.add(n.Symbol, n.Count)
		}
	}
	return m, nil
}

type jsonModel struct {
	Order    int           `json:"order"`
	Alpha    float64       `json:"alpha"`
	Symbols  []string      `json:"symbols"`
	Window   []string      `json:"window,omitempty"`
	Contexts []jsonContext `json:"contexts"`
}

type jsonContext struct {
	Context []string    `json:"context"`
	Next    []jsonCount `json:"next"`
}

type jsonCount struct {
	Symbol string `json:"symbol"`
	Count  uint64 `json:"count"`
}

func formatAll[S comparable](codec Codec[S], syms []S) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = codec.Format(s)
	}
	return out
}

func parseAll[S comparable](codec Codec[S], text []string) ([]S, error) {
	out := make([]S, len(text))
	for i, t := range text {
		s, err := codec.Parse(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
		}
		out[i] = s
	}
	return out, nil
}

// WriteJSON writes the model as an indented JSON document.
func WriteJSON[S comparable](w io.Writer, m *Model[S]) error {
	snap := m.snapshot()
	doc := jsonModel{
		Order:    snap.order,
		Alpha:    snap.alpha,
		Symbols:  formatAll(m.codec, snap.symbols),
		Window:   formatAll(m.codec, snap.window),
		Contexts: make([]jsonContext, 0, len(snap.contexts)),
	}
	for _, c := range snap.contexts {
		jc := jsonContext{
			Context: formatAll(m.codec, c.context),
			Next:    make([]jsonCount, len(c.next)),
		}
		for i, n := range c.next {
			jc.Next[i] = jsonCount{Symbol: m.codec.Format(n.Symbol), Count: n.Count}
		}
		doc.Contexts = append(doc.Contexts, jc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON reads a model written by WriteJSON.
func ReadJSON[S comparable](r io.Reader, codec Codec[S]) (*Model[S], error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc jsonModel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}

	snap := snapshot[S]{order: doc.Order, alpha: doc.Alpha}
	var err error
	if snap.symbols, err = parseAll(codec, doc.Symbols); err != nil {
		return nil, err
	}
	if snap.window, err = parseAll(codec, doc.Window); err != nil {
		return nil, err
	}
	for _, jc := range doc.Contexts {
		ctx, err := parseAll(codec, jc.Context)
		if err != nil {
			return nil, err
		}
		c := contextSnapshot[S]{context: ctx, next: make([]Count[S], len(jc.Next))}
		for i, n := range jc.Next {
			s, err := codec.Parse(n.Symbol)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
			}
			c.next[i] = Count[S]{Symbol: s, Count: n.Count}
		}
		snap.contexts = append(snap.contexts, c)
	}
	return restore(snap, codec)
}

// Save writes the model to path. Files ending in ".json" use the JSON
// format, anything else the binary format.
func Save[S comparable](path string, m *Model[S]) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if isJSON(path) {
		err = WriteJSON(w, m)
	} else {
		_, err = w.Write(AppendBinary(nil, m))
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// Load reads a model saved with Save.
func Load[S comparable](path string, codec Codec[S]) (*Model[S], error) {
	if isJSON(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadJSON(bufio.NewReader(f), codec)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadBinary(data, codec)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
