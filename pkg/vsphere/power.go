package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"
)

// Power states accepted by SetVMPowerState.
const (
	PowerStateOn  = string(types.VirtualMachinePowerStatePoweredOn)
	PowerStateOff = string(types.VirtualMachinePowerStatePoweredOff)
)

// SetVMPowerState drives a VM to the desired power state and reports whether
// anything changed. It is idempotent: no task runs when the VM is already in
// the desired state.
//
// An applied change invalidates the whole call cache: memoized lookups
// (vm_info and anything derived from it) cannot express the mutation as an
// argument difference, so without the flush they would replay pre-mutation
// state for up to one TTL window.
func (c *Client) SetVMPowerState(ctx context.Context, nameOrID, state string) (bool, error) {
	if state != PowerStateOn && state != PowerStateOff {
		return false, fmt.Errorf("unsupported power state %q", state)
	}

	var changed bool
	err := c.call(ctx, "set_vm_power_state", func() error {
		vm, err := c.findVM(ctx, nameOrID)
		if err != nil {
			return err
		}

		current, err := vm.PowerState(ctx)
		if err != nil {
			return fmt.Errorf("read power state: %w", err)
		}
		if string(current) == state {
			changed = false
			return nil
		}

		var task *object.Task
		if state == PowerStateOn {
			task, err = vm.PowerOn(ctx)
		} else {
			task, err = vm.PowerOff(ctx)
		}
		if err != nil {
			return fmt.Errorf("start power task: %w", err)
		}
		if err := task.Wait(ctx); err != nil {
			return fmt.Errorf("power task: %w", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		dropped := c.cache.InvalidateAll()
		c.logger.Info().
			Str("vm", nameOrID).
			Str("power_state", state).
			Int("dropped", dropped).
			Msg("Power state changed, cache invalidated")
	}

	return changed, nil
}
