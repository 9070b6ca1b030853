// Package http implements the HTTP handlers of the mlprep service.
//
// Handlers stay thin: they decode and validate the request, call a service
// interface and render JSON. Every error is written as RFC 7807 problem
// details through errors.ErrorHandler.
//
// Routes, relative to the /api/v1 mount point:
//
//	GET    /projects                  registered projects
//	POST   /projects/{project}/runs   run one project pipeline
//	POST   /runs                      run every project
//	GET    /runs                      recorded runs, newest first
//	GET    /runs/{id}                 one recorded run
//	DELETE /runs/{id}                 cancel an active run
package http
