// Package inventory narrows Sonar inventory items down to the devices of one
// manufacturer that are assigned to an account or network site and carry a
// MAC address.
package inventory

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/ordered"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

const (
	ModelsResource = "/inventory/models"
	ItemsResource  = "/inventory/items"

	// UbiquitiManufacturerID is the Sonar manufacturer id for Ubiquiti.
	UbiquitiManufacturerID types.ID = "1"
)

// DefaultExcludedAssigneeTypes are the assignee types that do not place a
// device at a customer or site location. They are rejected no matter what
// a Filter is configured with.
var DefaultExcludedAssigneeTypes = []string{
	"generic_inventory_assignees",
	"inventory_locations",
	"vehicles",
}

// ModelSet holds the model ids of the target manufacturer.
type ModelSet map[types.ID]struct{}

// Contains reports whether id is in the set.
func (s ModelSet) Contains(id types.ID) bool {
	_, ok := s[id]
	return ok
}

// Devices maps an inventory item id to its device record, in discovery order.
type Devices = ordered.Map[types.ID, types.DeviceRecord]

// Filter resolves eligible devices.
type Filter struct {
	fetcher pager.Fetcher
	log     logrus.FieldLogger

	ManufacturerID types.ID
	// ExcludedAssigneeTypes adds to DefaultExcludedAssigneeTypes.
	ExcludedAssigneeTypes []string
	// Parallel fetches models and items concurrently.
	Parallel bool
}

// NewFilter returns a Filter for Ubiquiti devices with the default excluded
// assignee types.
func NewFilter(f pager.Fetcher, log logrus.FieldLogger) *Filter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Filter{
		fetcher:               f,
		log:                   log,
		ManufacturerID:        UbiquitiManufacturerID,
		ExcludedAssigneeTypes: DefaultExcludedAssigneeTypes,
	}
}

// ResolveModels paginates the models resource and returns the ids made by
// the target manufacturer.
func (f *Filter) ResolveModels(ctx context.Context) (ModelSet, error) {
	models := make(ModelSet)
	for m, err := range pager.Decode[types.InventoryModel](pager.New(f.fetcher, ModelsResource, f.log).Records(ctx)) {
		if err != nil {
			return nil, fmt.Errorf("resolve models: %w", err)
		}
		if m.ManufacturerID == f.ManufacturerID {
			models[m.ID] = struct{}{}
		}
	}
	f.log.WithFields(logrus.Fields{"manufacturer": f.ManufacturerID, "count": len(models)}).Debug("resolved models")
	return models, nil
}

// ResolveDevices paginates the items resource and keeps the eligible items.
func (f *Filter) ResolveDevices(ctx context.Context, models ModelSet) (*Devices, error) {
	var st filterStats
	devices := ordered.New[types.ID, types.DeviceRecord](0)
	for item, err := range pager.Decode[types.InventoryItem](pager.New(f.fetcher, ItemsResource, f.log).Records(ctx)) {
		if err != nil {
			return nil, fmt.Errorf("resolve devices: %w", err)
		}
		f.add(devices, item, models, &st)
	}
	f.logStats(devices, st)
	return devices, nil
}

// Devices runs both phases. With Parallel set the models and items are
// fetched concurrently and the items are filtered once both are complete.
func (f *Filter) Devices(ctx context.Context) (*Devices, error) {
	if !f.Parallel {
		models, err := f.ResolveModels(ctx)
		if err != nil {
			return nil, err
		}
		return f.ResolveDevices(ctx, models)
	}

	var (
		models ModelSet
		items  []types.InventoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		models, err = f.ResolveModels(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = pager.Collect[types.InventoryItem](gctx, f.fetcher, ItemsResource, f.log)
		if err != nil {
			return fmt.Errorf("resolve devices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var st filterStats
	devices := ordered.New[types.ID, types.DeviceRecord](len(items))
	for _, item := range items {
		f.add(devices, item, models, &st)
	}
	f.logStats(devices, st)
	return devices, nil
}

// Eligible applies the assignee, model and MAC checks to one item.
func (f *Filter) Eligible(item types.InventoryItem, models ModelSet) (types.DeviceRecord, bool) {
	rec, reason := f.check(item, models)
	return rec, reason == keep
}

type rejectReason int

const (
	keep rejectReason = iota
	excludedAssignee
	foreignModel
	noMAC
)

type filterStats struct {
	seen, excluded, foreign, noMAC int
}

func (f *Filter) check(item types.InventoryItem, models ModelSet) (types.DeviceRecord, rejectReason) {
	if slices.Contains(DefaultExcludedAssigneeTypes, item.AssigneeType) ||
		slices.Contains(f.ExcludedAssigneeTypes, item.AssigneeType) {
		return types.DeviceRecord{}, excludedAssignee
	}
	if !models.Contains(item.ModelID) {
		return types.DeviceRecord{}, foreignModel
	}
	mac, ok := FirstMAC(item.Fields)
	if !ok {
		return types.DeviceRecord{}, noMAC
	}
	return types.DeviceRecord{ItemID: item.ID, AssigneeID: item.AssigneeID, MAC: mac}, keep
}

func (f *Filter) add(devices *Devices, item types.InventoryItem, models ModelSet, st *filterStats) {
	st.seen++
	rec, reason := f.check(item, models)
	switch reason {
	case excludedAssignee:
		st.excluded++
	case foreignModel:
		st.foreign++
	case noMAC:
		st.noMAC++
	default:
		devices.Set(item.ID, rec)
	}
}

func (f *Filter) logStats(devices *Devices, st filterStats) {
	f.log.WithFields(logrus.Fields{
		"items":             st.seen,
		"excluded_assignee": st.excluded,
		"other_model":       st.foreign,
		"no_mac":            st.noMAC,
		"count":             devices.Len(),
	}).Info("resolved devices")
}
