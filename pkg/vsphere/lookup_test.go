package vsphere

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simVM is a VM name the simulator's default inventory always contains.
const simVM = "DC0_H0_VM0"

func TestClient_VMInfo(t *testing.T) {
	client := newSimClient(t, false)
	ctx := context.Background()

	info, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)

	assert.Equal(t, simVM, info.Name)
	assert.NotEmpty(t, info.MOID)
	assert.Equal(t, PowerStateOn, info.PowerState)
	assert.Greater(t, info.NumCPU, int32(0))
	assert.Greater(t, info.MemoryMB, int32(0))
}

func TestClient_VMInfo_ByMOID(t *testing.T) {
	client := newSimClient(t, false)
	ctx := context.Background()

	byName, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)

	byMOID, err := client.VMInfo(ctx, byName.MOID)
	require.NoError(t, err)

	assert.Equal(t, byName.Name, byMOID.Name)
	assert.Equal(t, byName.MOID, byMOID.MOID)
}

func TestClient_VMInfo_NotFound(t *testing.T) {
	client := newSimClient(t, false)

	_, err := client.VMInfo(context.Background(), "no-such-vm")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "error should classify as not_found: %v", err)
}

func TestClient_VMInfo_CacheHitReturnsSameValue(t *testing.T) {
	client := newSimClient(t, true)
	ctx := context.Background()

	first, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)
	assert.Equal(t, 1, client.Cache().Len())

	second, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)

	// A hit returns the stored value, not a re-fetched copy.
	assert.Same(t, first, second)
	assert.Equal(t, 1, client.Cache().Len())
}

func TestClient_VMInfo_DisabledCacheStoresNothing(t *testing.T) {
	client := newSimClient(t, false)
	ctx := context.Background()

	first, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)

	second, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 0, client.Cache().Len())
}

func TestClient_VMInfos(t *testing.T) {
	client := newSimClient(t, true)

	results := client.VMInfos(context.Background(), []string{simVM, "no-such-vm"})
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	info, ok := results[0].Value.(*VMInfo)
	require.True(t, ok)
	assert.Equal(t, simVM, info.Name)

	require.Error(t, results[1].Err)
	assert.True(t, IsNotFound(results[1].Err))
}

func TestClient_DatastoreInfo(t *testing.T) {
	client := newSimClient(t, false)

	info, err := client.DatastoreInfo(context.Background(), "LocalDS_0")
	require.NoError(t, err)

	assert.Equal(t, "LocalDS_0", info.Name)
	assert.NotEmpty(t, info.MOID)
	assert.True(t, info.Accessible)
	assert.GreaterOrEqual(t, info.CapacityBytes, info.FreeBytes)
	assert.Empty(t, info.Cluster, "plain datastore must not report a cluster")
}

func TestClient_DatastoreInfo_NotFound(t *testing.T) {
	client := newSimClient(t, false)

	_, err := client.DatastoreInfo(context.Background(), "no-such-datastore")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_NetworkInfo(t *testing.T) {
	client := newSimClient(t, false)
	ctx := context.Background()

	standard, err := client.NetworkInfo(ctx, "VM Network")
	require.NoError(t, err)
	assert.Equal(t, "VM Network", standard.Name)
	assert.Equal(t, "Network", standard.Type)
	assert.NotEmpty(t, standard.MOID)

	// Distributed portgroups resolve through the same lookup.
	dvpg, err := client.NetworkInfo(ctx, "DC0_DVPG0")
	require.NoError(t, err)
	assert.Equal(t, "DistributedVirtualPortgroup", dvpg.Type)
}

func TestClient_NetworkInfo_NotFound(t *testing.T) {
	client := newSimClient(t, false)

	_, err := client.NetworkInfo(context.Background(), "no-such-portgroup")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_SetVMPowerState(t *testing.T) {
	client := newSimClient(t, true)
	ctx := context.Background()

	// Populate the cache, then mutate.
	before, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)
	require.Equal(t, PowerStateOn, before.PowerState)
	require.Equal(t, 1, client.Cache().Len())

	changed, err := client.SetVMPowerState(ctx, simVM, PowerStateOff)
	require.NoError(t, err)
	assert.True(t, changed)

	// The mutation flushed the cache, so the next lookup sees fresh state.
	assert.Equal(t, 0, client.Cache().Len())

	after, err := client.VMInfo(ctx, simVM)
	require.NoError(t, err)
	assert.Equal(t, PowerStateOff, after.PowerState)

	// Idempotent: already in the desired state.
	changed, err = client.SetVMPowerState(ctx, simVM, PowerStateOff)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestClient_SetVMPowerState_InvalidState(t *testing.T) {
	client := newSimClient(t, false)

	_, err := client.SetVMPowerState(context.Background(), simVM, "suspended")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported power state")
}
