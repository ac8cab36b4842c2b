// Package session holds the authenticated client state: the access and
// refresh token pair plus the cached profile of the signed-in user.
//
// All reads and writes go through the Store interface, which has an explicit
// lifecycle: Init when the client starts, Teardown on logout. The API client
// reads the access token from the store on every request and rewrites it when
// a refresh succeeds; nothing else in the program touches tokens directly.
//
// Two implementations are provided:
//
//   - FileStore persists the session as YAML (mode 0600) next to the
//     configuration file, so the CLI stays logged in between invocations.
//   - MemoryStore keeps the session in memory only. Tests and one-shot
//     scripts use it.
//
// # Usage Example
//
//	store := session.NewFileStore(path)
//	if err := store.Init(); err != nil {
//	    return err
//	}
//	if !store.Get().Authenticated() {
//	    return errors.New("not logged in, run: lmsadmin login")
//	}
//
// # Thread Safety
//
// Both stores are safe for concurrent use.
package session
