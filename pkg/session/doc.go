/*
Package session keeps named machines in memory and serializes access to each one.

A rewind.Machine is not safe for concurrent use. Manager hands out a machine only
inside WithLock, which holds a per-machine mutex for the duration of the callback:

	err := mgr.WithLock(ctx, id, func(ctx context.Context, m *rewind.Machine) error {
		_, err := m.Trigger("start")
		return err
	})

Locks are reference counted and dropped once no caller holds them.
*/
package session
