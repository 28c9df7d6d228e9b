package dataapi

// FindOneOptions are the optional fields of a findOne action.
type FindOneOptions struct {
	Projection any
}

func NewFindOneOptions() *FindOneOptions {
	return &FindOneOptions{}
}

func (o *FindOneOptions) SetProjection(projection any) *FindOneOptions {
	o.Projection = projection
	return o
}

// FindOptions are the optional fields of a find action. Nil fields are left
// out of the request.
type FindOptions struct {
	Projection any
	Sort       any
	Limit      *int64
	Skip       *int64
}

func NewFindOptions() *FindOptions {
	return &FindOptions{}
}

func (o *FindOptions) SetProjection(projection any) *FindOptions {
	o.Projection = projection
	return o
}

func (o *FindOptions) SetSort(sort any) *FindOptions {
	o.Sort = sort
	return o
}

func (o *FindOptions) SetLimit(limit int64) *FindOptions {
	o.Limit = &limit
	return o
}

func (o *FindOptions) SetSkip(skip int64) *FindOptions {
	o.Skip = &skip
	return o
}

// UpdateOptions apply to updateOne, updateMany and replaceOne.
type UpdateOptions struct {
	Upsert *bool
}

func NewUpdateOptions() *UpdateOptions {
	return &UpdateOptions{}
}

func (o *UpdateOptions) SetUpsert(upsert bool) *UpdateOptions {
	o.Upsert = &upsert
	return o
}

// CountOptions bound the documents counted by CountDocuments.
type CountOptions struct {
	Limit *int64
	Skip  *int64
}

func NewCountOptions() *CountOptions {
	return &CountOptions{}
}

func (o *CountOptions) SetLimit(limit int64) *CountOptions {
	o.Limit = &limit
	return o
}

func (o *CountOptions) SetSkip(skip int64) *CountOptions {
	o.Skip = &skip
	return o
}
