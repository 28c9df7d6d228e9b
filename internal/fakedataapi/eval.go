package fakedataapi

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lookup returns the value of the top-level field key.
func lookup(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// lookupPath follows a dotted path through embedded documents.
func lookupPath(doc bson.D, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		d, ok := asDoc(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = lookup(d, part); !ok {
			return nil, false
		}
	}
	return cur, true
}

func setField(doc bson.D, key string, v any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = v
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: v})
}

func unsetField(doc bson.D, key string) bson.D {
	return slices.DeleteFunc(doc, func(e bson.E) bool { return e.Key == key })
}

func asDoc(v any) (bson.D, bool) {
	switch t := v.(type) {
	case bson.D:
		return t, true
	case bson.M:
		return mapToDoc(t), true
	case map[string]any:
		return mapToDoc(t), true
	}
	return nil, false
}

func mapToDoc(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := make(bson.D, 0, len(m))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}

func asArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case bson.A:
		return t, true
	case []any:
		return t, true
	case []bson.D:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

// number narrows n to int32 when it fits, like the server does for sums
// and counts.
func number(n int64) any {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return int32(n)
	}
	return n
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func equal(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same family. ok is false when they
// cannot be ordered.
func compare(a, b any) (int, bool) {
	if fa, okA := toFloat(a); okA {
		if fb, okB := toFloat(b); okB {
			return cmp.Compare(fa, fb), true
		}
		return 0, false
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return cmp.Compare(x, y), true
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex()), true
		}
	}
	return 0, false
}

func isOperatorDoc(v any) (bson.D, bool) {
	d, ok := asDoc(v)
	if !ok || len(d) == 0 || !strings.HasPrefix(d[0].Key, "$") {
		return nil, false
	}
	return d, true
}

// matches reports whether doc satisfies filter. Only a subset of the query
// language is understood; anything else is an error.
func matches(doc, filter bson.D) (bool, error) {
	for _, e := range filter {
		switch e.Key {
		case "$and", "$or":
			clauses, ok := asArray(e.Value)
			if !ok {
				return false, fmt.Errorf("%s must be an array", e.Key)
			}
			anyMatched := false
			for _, c := range clauses {
				cd, ok := asDoc(c)
				if !ok {
					return false, fmt.Errorf("%s entries must be objects", e.Key)
				}
				m, err := matches(doc, cd)
				if err != nil {
					return false, err
				}
				if e.Key == "$and" && !m {
					return false, nil
				}
				anyMatched = anyMatched || m
			}
			if e.Key == "$or" && !anyMatched {
				return false, nil
			}
			continue
		}

		v, found := lookupPath(doc, e.Key)
		if ops, ok := isOperatorDoc(e.Value); ok {
			for _, op := range ops {
				m, err := matchOperator(op.Key, v, found, op.Value)
				if err != nil || !m {
					return false, err
				}
			}
			continue
		}
		if !found || !equal(v, e.Value) {
			return false, nil
		}
	}
	return true, nil
}

func matchOperator(op string, v any, found bool, arg any) (bool, error) {
	switch op {
	case "$eq":
		return found && equal(v, arg), nil
	case "$ne":
		return !found || !equal(v, arg), nil
	case "$exists":
		return found == truthy(arg), nil
	case "$in", "$nin":
		values, ok := asArray(arg)
		if !ok {
			return false, fmt.Errorf("%s needs an array", op)
		}
		in := found && slices.ContainsFunc(values, func(x any) bool { return equal(v, x) })
		return in == (op == "$in"), nil
	case "$gt", "$gte", "$lt", "$lte":
		if !found {
			return false, nil
		}
		c, ok := compare(v, arg)
		if !ok {
			return false, nil
		}
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	}
	return false, fmt.Errorf("unknown operator: %s", op)
}

// applyUpdate returns a copy of doc with update applied.
func applyUpdate(doc, update bson.D) (bson.D, error) {
	if len(update) == 0 {
		return nil, fmt.Errorf("update document must not be empty")
	}

	out := slices.Clone(doc)
	for _, op := range update {
		fields, ok := asDoc(op.Value)
		if !ok {
			return nil, fmt.Errorf("update operator %s needs an object", op.Key)
		}
		for _, f := range fields {
			switch op.Key {
			case "$set":
				out = setField(out, f.Key, f.Value)
			case "$unset":
				out = unsetField(out, f.Key)
			case "$inc":
				cur, _ := lookup(out, f.Key)
				sum, err := add(cur, f.Value)
				if err != nil {
					return nil, err
				}
				out = setField(out, f.Key, sum)
			default:
				return nil, fmt.Errorf("unknown update operator: %s", op.Key)
			}
		}
	}
	return out, nil
}

func add(cur, delta any) (any, error) {
	if cur == nil {
		cur = int32(0)
	}
	a, okA := toInt(cur)
	b, okB := toInt(delta)
	_, curFloat := cur.(float64)
	_, deltaFloat := delta.(float64)
	if okA && okB && !curFloat && !deltaFloat {
		if _, wide := cur.(int64); wide {
			return a + b, nil
		}
		if _, wide := delta.(int64); wide {
			return a + b, nil
		}
		return number(a + b), nil
	}
	fa, okA := toFloat(cur)
	fb, okB := toFloat(delta)
	if !okA || !okB {
		return nil, fmt.Errorf("cannot apply $inc to a non-numeric value")
	}
	return fa + fb, nil
}

// upsertSeed builds the document inserted by an upsert: the equality
// fields of filter, then the update.
func upsertSeed(filter, update bson.D) (bson.D, error) {
	var seed bson.D
	for _, e := range filter {
		if strings.HasPrefix(e.Key, "$") || strings.Contains(e.Key, ".") {
			continue
		}
		if _, op := isOperatorDoc(e.Value); op {
			continue
		}
		seed = append(seed, e)
	}
	return applyUpdate(seed, update)
}

func project(doc, projection bson.D) bson.D {
	if len(projection) == 0 {
		return doc
	}

	inclusive := false
	for _, e := range projection {
		if e.Key != "_id" && truthy(e.Value) {
			inclusive = true
		}
	}
	keepID := true
	if v, ok := lookup(projection, "_id"); ok {
		keepID = truthy(v)
	}

	out := bson.D{}
	for _, e := range doc {
		if e.Key == "_id" {
			if keepID {
				out = append(out, e)
			}
			continue
		}
		v, listed := lookup(projection, e.Key)
		if (inclusive && listed && truthy(v)) || (!inclusive && (!listed || truthy(v))) {
			out = append(out, e)
		}
	}
	return out
}

func sortDocs(docs []bson.D, spec bson.D) {
	slices.SortStableFunc(docs, func(a, b bson.D) int {
		for _, e := range spec {
			dir := 1
			if n, ok := toInt(e.Value); ok && n < 0 {
				dir = -1
			}
			va, okA := lookupPath(a, e.Key)
			vb, okB := lookupPath(b, e.Key)
			switch {
			case !okA && !okB:
				continue
			case !okA:
				return -dir
			case !okB:
				return dir
			}
			if c, ok := compare(va, vb); ok && c != 0 {
				return c * dir
			}
		}
		return 0
	})
}

// sum accumulates like $sum: integers stay integers until a double shows up.
type sum struct {
	i       int64
	f       float64
	isFloat bool
}

func (s *sum) add(v any) {
	if n, ok := v.(float64); ok {
		s.f += n
		s.isFloat = true
		return
	}
	if n, ok := toInt(v); ok {
		s.i += n
	}
}

func (s *sum) value() any {
	if s.isFloat {
		return s.f + float64(s.i)
	}
	return number(s.i)
}

type group struct {
	id   any
	sums []*sum
}

// groupDocs implements $group with constant or "$field" keys and $sum
// accumulators. An empty input produces no groups.
func groupDocs(docs []bson.D, spec bson.D) ([]bson.D, error) {
	idExpr, ok := lookup(spec, "_id")
	if !ok {
		return nil, fmt.Errorf("a group specification must include an _id")
	}

	type accumulator struct {
		name string
		arg  any
	}
	var accs []accumulator
	for _, e := range spec {
		if e.Key == "_id" {
			continue
		}
		op, ok := asDoc(e.Value)
		if !ok || len(op) != 1 || op[0].Key != "$sum" {
			return nil, fmt.Errorf("unsupported accumulator for field %q", e.Key)
		}
		accs = append(accs, accumulator{name: e.Key, arg: op[0].Value})
	}

	eval := func(doc bson.D, expr any) any {
		if path, ok := expr.(string); ok && strings.HasPrefix(path, "$") {
			v, _ := lookupPath(doc, strings.TrimPrefix(path, "$"))
			return v
		}
		return expr
	}

	var groups []*group
	for _, doc := range docs {
		id := eval(doc, idExpr)
		idx := slices.IndexFunc(groups, func(g *group) bool { return equal(g.id, id) })
		if idx < 0 {
			g := &group{id: id, sums: make([]*sum, len(accs))}
			for i := range g.sums {
				g.sums[i] = &sum{}
			}
			groups = append(groups, g)
			idx = len(groups) - 1
		}
		for i, acc := range accs {
			groups[idx].sums[i].add(eval(doc, acc.arg))
		}
	}

	out := make([]bson.D, 0, len(groups))
	for _, g := range groups {
		row := bson.D{{Key: "_id", Value: g.id}}
		for i, acc := range accs {
			row = append(row, bson.E{Key: acc.name, Value: g.sums[i].value()})
		}
		out = append(out, row)
	}
	return out, nil
}
