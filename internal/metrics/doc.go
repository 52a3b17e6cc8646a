// Package metrics records menu operation metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	svc := menus.NewService(remote, store, menus.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The daemon serves the registry through HTTPHandler.
package metrics
