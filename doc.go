// Package identity resolves verified identity claims onto canonical user
// records.
//
// Resolution:
//   - Resolver.ResolveByPassword and Resolver.ResolveBySignup cover password
//     accounts. Passwords are hashed with bcrypt at DefaultPasswordCost.
//   - Resolver.ResolveByProvider matches the (provider, providerID) pair
//     first. Otherwise it issues a single Store.UpsertByEmail that creates the
//     record or links the identity onto the record owning the email. A record
//     already linked to a different identity yields ErrIdentityConflict.
//   - Resolver.ListUsers pages records newest first with a total count.
//
// Storage:
//   - Store is the persistence boundary. repository.UserRepository implements
//     it with Bun on SQLite or PostgreSQL; memstore.Store keeps records in
//     memory for tests.
//
// Activity sinks:
//   - ActivitySink receives creation, linking, and login events. Sinks run
//     best effort (errors are logged) so you can forward to a database or
//     queue without blocking resolution. activitymap flattens events for
//     downstream audit systems.
package identity
