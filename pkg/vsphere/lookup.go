package vsphere

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/vsphere-tools/vsphere-client-cache/pkg/batch"
	"github.com/vsphere-tools/vsphere-client-cache/pkg/callcache"
)

// VMInfo is a cacheable summary of a virtual machine.
type VMInfo struct {
	Name          string `json:"name"`
	MOID          string `json:"moid"`
	PowerState    string `json:"power_state"`
	GuestFullName string `json:"guest_full_name"`
	NumCPU        int32  `json:"num_cpu"`
	MemoryMB      int32  `json:"memory_mb"`
	UUID          string `json:"uuid"`
}

// DatastoreInfo is a cacheable summary of a datastore.
type DatastoreInfo struct {
	Name          string `json:"name"`
	MOID          string `json:"moid"`
	Type          string `json:"type"`
	CapacityBytes int64  `json:"capacity_bytes"`
	FreeBytes     int64  `json:"free_bytes"`
	Accessible    bool   `json:"accessible"`

	// Cluster is set when the identifier named a datastore cluster and the
	// member with the most free space was selected.
	Cluster string `json:"cluster,omitempty"`
}

// NetworkInfo is a cacheable summary of a portgroup or network.
type NetworkInfo struct {
	Name string `json:"name"`
	MOID string `json:"moid"`
	Type string `json:"type"`
}

// VMInfo resolves a virtual machine by inventory name or MOID and returns
// its summary. The lookup is memoized per (session, identifier).
func (c *Client) VMInfo(ctx context.Context, nameOrID string) (*VMInfo, error) {
	key := callcache.CallKey{
		Operation: "vsphere.vm_info",
		Args:      []any{c.identity, nameOrID},
	}
	return callcache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*VMInfo, error) {
		return c.fetchVMInfo(ctx, nameOrID)
	})
}

// VMInfos resolves many virtual machines through the memoized lookup with
// bounded concurrency.
func (c *Client) VMInfos(ctx context.Context, namesOrIDs []string) []batch.Result {
	fetcher := batch.NewFetcher(func(ctx context.Context, id string) (any, error) {
		return c.VMInfo(ctx, id)
	}, batch.DefaultConfig())
	return fetcher.FetchAll(ctx, namesOrIDs)
}

// DatastoreInfo resolves a datastore by name or MOID. A datastore cluster
// identifier resolves to the member datastore with the most free space.
// The lookup is memoized per (session, identifier).
func (c *Client) DatastoreInfo(ctx context.Context, nameOrID string) (*DatastoreInfo, error) {
	key := callcache.CallKey{
		Operation: "vsphere.datastore_info",
		Args:      []any{c.identity, nameOrID},
	}
	return callcache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*DatastoreInfo, error) {
		return c.fetchDatastoreInfo(ctx, nameOrID)
	})
}

// NetworkInfo resolves a portgroup by name. Distributed and standard
// portgroups share one namespace here, the way placement expects.
// The lookup is memoized per (session, name).
func (c *Client) NetworkInfo(ctx context.Context, name string) (*NetworkInfo, error) {
	key := callcache.CallKey{
		Operation: "vsphere.network_info",
		Args:      []any{c.identity, name},
	}
	return callcache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*NetworkInfo, error) {
		return c.fetchNetworkInfo(ctx, name)
	})
}

func (c *Client) fetchVMInfo(ctx context.Context, nameOrID string) (*VMInfo, error) {
	var info *VMInfo

	err := c.call(ctx, "vm_info", func() error {
		vm, err := c.findVM(ctx, nameOrID)
		if err != nil {
			return err
		}

		var props mo.VirtualMachine
		pc := property.DefaultCollector(c.vim.Client)
		if err := pc.RetrieveOne(ctx, vm.Reference(), []string{"summary"}, &props); err != nil {
			return fmt.Errorf("retrieve vm properties: %w", err)
		}

		summary := props.Summary
		info = &VMInfo{
			Name:          summary.Config.Name,
			MOID:          vm.Reference().Value,
			PowerState:    string(summary.Runtime.PowerState),
			GuestFullName: summary.Config.GuestFullName,
			NumCPU:        summary.Config.NumCpu,
			MemoryMB:      summary.Config.MemorySizeMB,
			UUID:          summary.Config.Uuid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

func (c *Client) fetchDatastoreInfo(ctx context.Context, nameOrID string) (*DatastoreInfo, error) {
	var info *DatastoreInfo

	err := c.call(ctx, "datastore_info", func() error {
		// Datastore clusters share the identifier namespace with plain
		// datastores, so check for a cluster first and fall back.
		pod, err := c.finder.DatastoreCluster(ctx, nameOrID)
		if err == nil {
			info, err = c.largestDatastoreIn(ctx, pod)
			return err
		}

		var nfe *find.NotFoundError
		if !errors.As(err, &nfe) {
			return err
		}

		ds, err := c.finder.Datastore(ctx, nameOrID)
		if err != nil {
			return err
		}

		var props mo.Datastore
		pc := property.DefaultCollector(c.vim.Client)
		if err := pc.RetrieveOne(ctx, ds.Reference(), []string{"summary"}, &props); err != nil {
			return fmt.Errorf("retrieve datastore properties: %w", err)
		}

		info = datastoreInfoFromSummary(ds.Reference(), props.Summary, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// largestDatastoreIn returns the member of a datastore cluster with the most
// free space.
func (c *Client) largestDatastoreIn(ctx context.Context, pod *object.StoragePod) (*DatastoreInfo, error) {
	pc := property.DefaultCollector(c.vim.Client)

	var folder mo.StoragePod
	if err := pc.RetrieveOne(ctx, pod.Reference(), []string{"name", "childEntity"}, &folder); err != nil {
		return nil, fmt.Errorf("retrieve datastore cluster: %w", err)
	}

	var refs []types.ManagedObjectReference
	for _, child := range folder.ChildEntity {
		if child.Type == "Datastore" {
			refs = append(refs, child)
		}
	}
	if len(refs) == 0 {
		return nil, &ClientError{
			Op:    "datastore_info",
			Class: ErrorClassNotFound,
			Err:   fmt.Errorf("datastore cluster %q has no datastores", folder.Name),
		}
	}

	var members []mo.Datastore
	if err := pc.Retrieve(ctx, refs, []string{"summary"}, &members); err != nil {
		return nil, fmt.Errorf("retrieve cluster members: %w", err)
	}

	best := members[0]
	for _, member := range members[1:] {
		if member.Summary.FreeSpace > best.Summary.FreeSpace {
			best = member
		}
	}

	return datastoreInfoFromSummary(best.Reference(), best.Summary, folder.Name), nil
}

func datastoreInfoFromSummary(ref types.ManagedObjectReference, summary types.DatastoreSummary, cluster string) *DatastoreInfo {
	return &DatastoreInfo{
		Name:          summary.Name,
		MOID:          ref.Value,
		Type:          summary.Type,
		CapacityBytes: summary.Capacity,
		FreeBytes:     summary.FreeSpace,
		Accessible:    summary.Accessible,
		Cluster:       cluster,
	}
}

func (c *Client) fetchNetworkInfo(ctx context.Context, name string) (*NetworkInfo, error) {
	var info *NetworkInfo

	err := c.call(ctx, "network_info", func() error {
		network, err := c.finder.Network(ctx, name)
		if err != nil {
			return err
		}

		ref := network.Reference()
		info = &NetworkInfo{
			Name: name,
			MOID: ref.Value,
			Type: ref.Type,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// findVM resolves a VM by inventory name first, then by MOID, matching how
// identifiers arrive from automation inputs.
func (c *Client) findVM(ctx context.Context, nameOrID string) (*object.VirtualMachine, error) {
	vm, err := c.finder.VirtualMachine(ctx, nameOrID)
	if err == nil {
		return vm, nil
	}

	var nfe *find.NotFoundError
	if !errors.As(err, &nfe) {
		return nil, err
	}

	ref := types.ManagedObjectReference{Type: "VirtualMachine", Value: nameOrID}
	vm = object.NewVirtualMachine(c.vim.Client, ref)

	// Confirm the reference actually exists before handing it out.
	var check mo.VirtualMachine
	pc := property.DefaultCollector(c.vim.Client)
	if perr := pc.RetrieveOne(ctx, ref, []string{"name"}, &check); perr != nil {
		return nil, &ClientError{
			Op:    "vm_lookup",
			Class: ErrorClassNotFound,
			Err:   fmt.Errorf("no VM with name or MOID %q", nameOrID),
		}
	}

	return vm, nil
}
