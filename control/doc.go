// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, hot reload, metrics and debug introspection around the
// buffer pool.
//
// Provides:
//   - Config loading (viper) and validation (validator), NewPool from config
//   - ConfigStore snapshots with reload listeners and a file watcher
//   - Prometheus collector over pool stats
//   - Debug probe registration for pool and platform state
package control
