// Package area resolves area ids into the population and hierarchy data
// used for per-capita values and hotspot filters.
package area

import (
	"context"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v2"

	"github.com/bitmark-inc/covid-trends/schema"
)

const (
	logPrefix      = "area"
	defaultTimeout = 5 * time.Second
)

var (
	ErrAreaNotFound = fmt.Errorf("area not found")
)

// Directory finds the area of an id.
type Directory interface {
	Find(id string) (schema.AreaInfo, error)
}

// Lookup never fails: ids no directory knows resolve to the unknown area,
// whose population is nil.
func Lookup(d Directory, id string) schema.AreaInfo {
	if d == nil {
		return schema.UnknownArea(id)
	}

	info, err := d.Find(id)
	if err != nil {
		log.WithField("prefix", logPrefix).WithField("area", id).Debugf("fall back to unknown area: %s", err)
		return schema.UnknownArea(id)
	}
	return info
}

type MultipleDirectoryErrors struct {
	errors []error
}

func (e *MultipleDirectoryErrors) Error() string {
	errorStrings := make([]string, len(e.errors))
	for i, err := range e.errors {
		errorStrings[i] = fmt.Sprintf("#%d: %s", i, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

// Is lets errors.Is see ErrAreaNotFound when every directory missed.
func (e *MultipleDirectoryErrors) Is(target error) bool {
	if len(e.errors) == 0 {
		return false
	}
	for _, err := range e.errors {
		if err != target {
			return false
		}
	}
	return true
}

func NewMultipleDirectoryErrors(errors []error) *MultipleDirectoryErrors {
	return &MultipleDirectoryErrors{
		errors: errors,
	}
}

// MemoryDirectory is a fixed set of areas, typically loaded from YAML.
type MemoryDirectory struct {
	areas map[string]schema.AreaInfo
}

func NewMemoryDirectory(areas ...schema.AreaInfo) *MemoryDirectory {
	d := &MemoryDirectory{
		areas: make(map[string]schema.AreaInfo, len(areas)),
	}
	for _, a := range areas {
		if a.Type == "" {
			a.Type = schema.AreaUnknown
		}
		d.areas[a.ID] = a
	}
	return d
}

type areaFile struct {
	Areas []schema.AreaInfo `yaml:"areas"`
}

// Parse reads a YAML document holding an `areas` list.
func Parse(data []byte) (*MemoryDirectory, error) {
	var f areaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for i := range f.Areas {
		f.Areas[i].Type = schema.ParseAreaType(string(f.Areas[i].Type))
	}
	return NewMemoryDirectory(f.Areas...), nil
}

func LoadFile(path string) (*MemoryDirectory, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("prefix", logPrefix).Infof("loaded %d areas from %s", d.Len(), path)
	return d, nil
}

func (d *MemoryDirectory) Find(id string) (schema.AreaInfo, error) {
	a, ok := d.areas[id]
	if !ok {
		return schema.AreaInfo{}, ErrAreaNotFound
	}
	return a, nil
}

func (d *MemoryDirectory) Len() int {
	return len(d.areas)
}

// Children returns the areas directly under parentID, ordered by id.
func (d *MemoryDirectory) Children(parentID string) []schema.AreaInfo {
	return d.collect(func(a schema.AreaInfo) bool { return a.Parent == parentID })
}

// Filter returns the areas of type t, ordered by id.
func (d *MemoryDirectory) Filter(t schema.AreaType) []schema.AreaInfo {
	return d.collect(func(a schema.AreaInfo) bool { return a.Type == t })
}

func (d *MemoryDirectory) collect(keep func(schema.AreaInfo) bool) []schema.AreaInfo {
	result := []schema.AreaInfo{}
	for _, a := range d.areas {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// IsDescendant reports whether id lies below ancestorID in the hierarchy.
func IsDescendant(d Directory, id, ancestorID string) bool {
	seen := map[string]bool{}
	for !seen[id] {
		seen[id] = true
		a, err := d.Find(id)
		if err != nil || a.Parent == "" {
			return false
		}
		if a.Parent == ancestorID {
			return true
		}
		id = a.Parent
	}
	return false
}

// MongoDirectory reads areas from the area collection.
type MongoDirectory struct {
	client   *mongo.Client
	database string
}

func NewMongoDirectory(client *mongo.Client, database string) *MongoDirectory {
	return &MongoDirectory{
		client:   client,
		database: database,
	}
}

func (m *MongoDirectory) Find(id string) (schema.AreaInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var a schema.AreaInfo
	if err := m.client.Database(m.database).Collection(schema.AreaCollection).
		FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return schema.AreaInfo{}, ErrAreaNotFound
		}
		return schema.AreaInfo{}, err
	}
	return a, nil
}

// Save upserts areas by id.
func (m *MongoDirectory) Save(areas ...schema.AreaInfo) error {
	if len(areas) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(areas))
	for _, a := range areas {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": a.ID}).
			SetReplacement(a).
			SetUpsert(true))
	}

	result, err := m.client.Database(m.database).Collection(schema.AreaCollection).
		BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		log.WithField("prefix", logPrefix).Errorf("save areas: %s", err)
		return err
	}
	log.WithField("prefix", logPrefix).Debugf("areas upserted: %d, modified: %d", result.UpsertedCount, result.ModifiedCount)
	return nil
}

// MultipleDirectory asks each directory in turn and returns the first hit.
type MultipleDirectory struct {
	directories []Directory
}

func NewMultipleDirectory(directories ...Directory) *MultipleDirectory {
	return &MultipleDirectory{
		directories: directories,
	}
}

func (r *MultipleDirectory) Find(id string) (schema.AreaInfo, error) {
	var errors []error
	for _, d := range r.directories {
		result, err := d.Find(id)
		if err != nil {
			errors = append(errors, err)
		} else {
			return result, nil
		}
	}

	return schema.AreaInfo{}, NewMultipleDirectoryErrors(errors)
}
