package fakedataapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dataapi/dataapi.go/pkg/constants"
)

func writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Code: "InvalidParameter", Message: err.Error()}
	}
	status := apiErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}

	data, merr := json.Marshal(apiErr)
	if merr != nil {
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func invalidParameter(format string, args ...any) *APIError {
	return &APIError{Code: "InvalidParameter", Message: fmt.Sprintf(format, args...)}
}

func withID(doc bson.D) bson.D {
	if _, ok := lookup(doc, "_id"); ok {
		return doc
	}
	return append(bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, doc...)
}

// params is the decoded request body of one call.
type params struct {
	ns   namespace
	body bson.D
}

func (p params) doc(key string, required bool) (bson.D, error) {
	v, ok := lookup(p.body, key)
	if !ok || v == nil {
		if required {
			return nil, invalidParameter("%s is required", key)
		}
		return nil, nil
	}
	d, ok := asDoc(v)
	if !ok {
		return nil, invalidParameter("%s must be an object", key)
	}
	return d, nil
}

func (p params) integer(key string) (int64, bool, error) {
	v, ok := lookup(p.body, key)
	if !ok {
		return 0, false, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, false, invalidParameter("%s must be an integer", key)
	}
	return n, true, nil
}

func (s *Server) parse(body bson.D) (params, error) {
	p := params{body: body}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{constants.FieldDataSource, &p.ns.dataSource},
		{constants.FieldDatabase, &p.ns.database},
		{constants.FieldCollection, &p.ns.collection},
	} {
		v, _ := lookup(body, f.key)
		str, ok := v.(string)
		if !ok || str == "" {
			return p, invalidParameter("%s is required", f.key)
		}
		*f.dst = str
	}
	if s.DataSource != "" && p.ns.dataSource != s.DataSource {
		return p, &APIError{
			Status:  http.StatusNotFound,
			Code:    "DataSourceNotFound",
			Message: fmt.Sprintf("cannot find data source %q", p.ns.dataSource),
		}
	}
	return p, nil
}

func (s *Server) dispatch(action string, body bson.D) (any, error) {
	p, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case constants.ActionInsertOne:
		return s.insertOne(p)
	case constants.ActionInsertMany:
		return s.insertMany(p)
	case constants.ActionFindOne:
		return s.findOne(p)
	case constants.ActionFind:
		return s.find(p)
	case constants.ActionUpdateOne, constants.ActionUpdateMany, constants.ActionReplaceOne:
		return s.update(action, p)
	case constants.ActionDeleteOne, constants.ActionDeleteMany:
		return s.delete(action == constants.ActionDeleteMany, p)
	case constants.ActionAggregate:
		return s.aggregate(p)
	}
	return nil, &APIError{Status: http.StatusNotFound, Code: "ActionNotFound", Message: "unknown action: " + action}
}

func (s *Server) insertOne(p params) (any, error) {
	doc, err := p.doc("document", true)
	if err != nil {
		return nil, err
	}
	doc = withID(slices.Clone(doc))
	s.store[p.ns] = append(s.store[p.ns], doc)

	id, _ := lookup(doc, "_id")
	return bson.D{{Key: "insertedId", Value: id}}, nil
}

func (s *Server) insertMany(p params) (any, error) {
	v, _ := lookup(p.body, "documents")
	items, ok := asArray(v)
	if !ok {
		return nil, invalidParameter("documents must be an array")
	}

	ids := bson.A{}
	docs := make([]bson.D, 0, len(items))
	for _, item := range items {
		d, ok := asDoc(item)
		if !ok {
			return nil, invalidParameter("documents must only contain objects")
		}
		d = withID(slices.Clone(d))
		id, _ := lookup(d, "_id")
		ids = append(ids, id)
		docs = append(docs, d)
	}
	s.store[p.ns] = append(s.store[p.ns], docs...)

	return bson.D{{Key: "insertedIds", Value: ids}}, nil
}

// indexes returns the positions of the documents matching filter.
func (s *Server) indexes(ns namespace, filter bson.D, limit int) ([]int, error) {
	var out []int
	for i, doc := range s.store[ns] {
		if limit > 0 && len(out) == limit {
			break
		}
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, invalidParameter("%v", err)
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *Server) findOne(p params) (any, error) {
	filter, err := p.doc("filter", false)
	if err != nil {
		return nil, err
	}
	projection, err := p.doc("projection", false)
	if err != nil {
		return nil, err
	}

	idx, err := s.indexes(p.ns, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		return bson.D{{Key: "document", Value: nil}}, nil
	}
	return bson.D{{Key: "document", Value: project(slices.Clone(s.store[p.ns][idx[0]]), projection)}}, nil
}

func (s *Server) find(p params) (any, error) {
	filter, err := p.doc("filter", false)
	if err != nil {
		return nil, err
	}
	projection, err := p.doc("projection", false)
	if err != nil {
		return nil, err
	}
	sortSpec, err := p.doc("sort", false)
	if err != nil {
		return nil, err
	}
	skip, _, err := p.integer("skip")
	if err != nil {
		return nil, err
	}
	limit, hasLimit, err := p.integer("limit")
	if err != nil {
		return nil, err
	}

	idx, err := s.indexes(p.ns, filter, 0)
	if err != nil {
		return nil, err
	}
	docs := make([]bson.D, 0, len(idx))
	for _, i := range idx {
		docs = append(docs, slices.Clone(s.store[p.ns][i]))
	}
	if len(sortSpec) > 0 {
		sortDocs(docs, sortSpec)
	}
	docs = window(docs, skip, limit, hasLimit)

	out := bson.A{}
	for _, d := range docs {
		out = append(out, project(d, projection))
	}
	return bson.D{{Key: "documents", Value: out}}, nil
}

func window(docs []bson.D, skip, limit int64, hasLimit bool) []bson.D {
	if skip > 0 {
		docs = docs[min(int(skip), len(docs)):]
	}
	if hasLimit && limit > 0 {
		docs = docs[:min(int(limit), len(docs))]
	}
	return docs
}

func (s *Server) update(action string, p params) (any, error) {
	filter, err := p.doc("filter", true)
	if err != nil {
		return nil, err
	}
	replace := action == constants.ActionReplaceOne
	changeKey := "update"
	if replace {
		changeKey = "replacement"
	}
	change, err := p.doc(changeKey, true)
	if err != nil {
		return nil, err
	}
	upsert := false
	if v, ok := lookup(p.body, "upsert"); ok {
		upsert, _ = v.(bool)
	}

	limit := 1
	if action == constants.ActionUpdateMany {
		limit = 0
	}
	idx, err := s.indexes(p.ns, filter, limit)
	if err != nil {
		return nil, err
	}

	var modified int64
	for _, i := range idx {
		old := s.store[p.ns][i]
		var next bson.D
		if replace {
			next = unsetField(slices.Clone(change), "_id")
			if id, ok := lookup(old, "_id"); ok {
				next = append(bson.D{{Key: "_id", Value: id}}, next...)
			}
		} else if next, err = applyUpdate(old, change); err != nil {
			return nil, invalidParameter("%v", err)
		}
		if !reflect.DeepEqual(old, next) {
			modified++
		}
		s.store[p.ns][i] = next
	}

	res := bson.D{
		{Key: "matchedCount", Value: number(int64(len(idx)))},
		{Key: "modifiedCount", Value: number(modified)},
	}
	if len(idx) == 0 && upsert {
		var doc bson.D
		if replace {
			doc = slices.Clone(change)
		} else if doc, err = upsertSeed(filter, change); err != nil {
			return nil, invalidParameter("%v", err)
		}
		doc = withID(doc)
		s.store[p.ns] = append(s.store[p.ns], doc)
		id, _ := lookup(doc, "_id")
		res = append(res, bson.E{Key: "upsertedId", Value: id})
	}
	return res, nil
}

func (s *Server) delete(many bool, p params) (any, error) {
	filter, err := p.doc("filter", true)
	if err != nil {
		return nil, err
	}
	limit := 1
	if many {
		limit = 0
	}
	idx, err := s.indexes(p.ns, filter, limit)
	if err != nil {
		return nil, err
	}

	docs := s.store[p.ns]
	for n, i := range idx {
		docs = slices.Delete(docs, i-n, i-n+1)
	}
	s.store[p.ns] = docs

	return bson.D{{Key: "deletedCount", Value: number(int64(len(idx)))}}, nil
}

func (s *Server) aggregate(p params) (any, error) {
	v, ok := lookup(p.body, "pipeline")
	if !ok {
		return nil, invalidParameter("pipeline is required")
	}
	stages, ok := asArray(v)
	if !ok {
		return nil, invalidParameter("pipeline must be an array")
	}

	stored := s.store[p.ns]
	docs := make([]bson.D, 0, len(stored))
	for _, d := range stored {
		docs = append(docs, slices.Clone(d))
	}

	for i, raw := range stages {
		stage, ok := asDoc(raw)
		if !ok || len(stage) != 1 {
			return nil, invalidParameter("a pipeline stage specification object must contain exactly one field")
		}
		name, arg := stage[0].Key, stage[0].Value

		var err error
		switch name {
		case "$match":
			filter, ok := asDoc(arg)
			if !ok {
				return nil, invalidParameter("$match must be an object")
			}
			docs = slices.DeleteFunc(docs, func(d bson.D) bool {
				if err != nil {
					return false
				}
				var m bool
				m, err = matches(d, filter)
				return !m
			})
		case "$skip":
			n, ok := toInt(arg)
			if !ok || n < 0 {
				return nil, invalidParameter("$skip must be a non-negative integer")
			}
			docs = window(docs, n, 0, false)
		case "$limit":
			n, ok := toInt(arg)
			if !ok || n <= 0 {
				return nil, invalidParameter("the limit must be positive")
			}
			docs = window(docs, 0, n, true)
		case "$sort":
			spec, ok := asDoc(arg)
			if !ok {
				return nil, invalidParameter("$sort must be an object")
			}
			sortDocs(docs, spec)
		case "$project":
			spec, ok := asDoc(arg)
			if !ok {
				return nil, invalidParameter("$project must be an object")
			}
			for j := range docs {
				docs[j] = project(docs[j], spec)
			}
		case "$group":
			spec, ok := asDoc(arg)
			if !ok {
				return nil, invalidParameter("$group must be an object")
			}
			docs, err = groupDocs(docs, spec)
		case "$collStats":
			if i != 0 {
				return nil, invalidParameter("$collStats is only valid as the first stage in a pipeline")
			}
			spec, _ := asDoc(arg)
			row := bson.D{{Key: "ns", Value: p.ns.database + "." + p.ns.collection}}
			if _, ok := lookup(spec, "count"); ok {
				row = append(row, bson.E{Key: "count", Value: number(int64(len(stored)))})
			}
			docs = []bson.D{row}
		default:
			return nil, invalidParameter("unrecognized pipeline stage name: '%s'", name)
		}
		if err != nil {
			return nil, invalidParameter("%v", err)
		}
	}

	out := bson.A{}
	for _, d := range docs {
		out = append(out, d)
	}
	return bson.D{{Key: "documents", Value: out}}, nil
}
