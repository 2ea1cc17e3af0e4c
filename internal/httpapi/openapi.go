package httpapi

// openapiDocument describes every route in SPEC_FULL.md §6. It is kept as
// a plain Go string rather than a go:embed asset — no repo in the
// retrieved corpus uses go:embed for bundled reference data (see
// DESIGN.md) — and parsed once at server startup with kin-openapi to
// build the request-validating router.
const openapiDocument = `
openapi: 3.0.3
info:
  title: Agent Finder API
  version: "1.0"
paths:
  /api/upload:
    post:
      operationId: upload
      requestBody:
        required: true
        content:
          multipart/form-data:
            schema:
              type: object
      responses:
        "200":
          description: job created
  /api/progress/{jobId}:
    get:
      operationId: progress
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: SSE stream
  /api/download/{jobId}:
    get:
      operationId: download
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: zip archive
  /api/jobs:
    get:
      operationId: listJobs
      responses:
        "200":
          description: job list
  /api/jobs/{jobId}/results:
    get:
      operationId: jobResults
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: parsed rows
  /api/jobs/{jobId}/cancel:
    post:
      operationId: cancelJob
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: ok
  /api/jobs/{jobId}/resume:
    post:
      operationId: resumeJob
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: new job created
  /api/jobs/{jobId}:
    delete:
      operationId: deleteJob
      parameters:
        - name: jobId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: deleted
  /api/cache/stats:
    get:
      operationId: cacheStats
      responses:
        "200":
          description: cache stats
  /api/fsbo/search:
    post:
      operationId: fsboSearch
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
      responses:
        "200":
          description: search created
  /api/fsbo/progress/{searchId}:
    get:
      operationId: fsboProgress
      parameters:
        - name: searchId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: SSE stream
  /api/fsbo/results/{searchId}:
    get:
      operationId: fsboResults
      parameters:
        - name: searchId
          in: path
          required: true
          schema: {type: string}
        - name: page
          in: query
          schema: {type: integer}
        - name: per_page
          in: query
          schema: {type: integer}
      responses:
        "200":
          description: paginated listings
  /api/fsbo/download/{searchId}:
    get:
      operationId: fsboDownload
      parameters:
        - name: searchId
          in: path
          required: true
          schema: {type: string}
        - name: fmt
          in: query
          schema: {type: string}
      responses:
        "200":
          description: csv export
  /api/fsbo/searches:
    get:
      operationId: fsboSearches
      responses:
        "200":
          description: search history
  /api/fsbo/searches/{searchId}:
    delete:
      operationId: deleteFsboSearch
      parameters:
        - name: searchId
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: deleted
  /api/rent-comps:
    get:
      operationId: rentComps
      responses:
        "501":
          description: not implemented
`
