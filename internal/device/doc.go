// Package device provides the owner-scoped Device Registry.
//
// A device is registered by an authenticated owner and is only ever
// visible to that owner. Every lookup goes through the Guard (implemented
// by Registry.Resolve), which answers ErrNotFoundOrUnauthorized for both
// missing devices and devices owned by someone else.
//
// # Key Types
//
//   - Device: the registered entity and its JSON projection
//   - Repository: owner-scoped persistence (SQLiteRepository in production)
//   - Registry: Register, List, Update, Delete and RecordHeartbeat
//   - Patch: a partial update with explicit field presence
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//	registry.SetPublisher(publisher)
//
//	dev, err := registry.Register(ctx, ownerID, device.RegisterRequest{
//	    Name: "Hall meter",
//	    Type: "sensor",
//	})
//
//	dev, err = registry.Update(ctx, ownerID, dev.ID, device.Patch{
//	    Status: device.Some("active"),
//	})
//
// # Partial updates
//
// A Patch field that is supplied but empty is treated exactly like a field
// that was not supplied. Clearing a name or status through Update is not
// possible.
package device
