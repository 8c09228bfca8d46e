package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `livetodo is a shared todo list edited live by people in browsers and terminals.

- Every change you make through these tools is broadcast immediately to every connected client.
- Items: id, text (1-500 characters, trimmed), completed, priority (high|medium|low), createdAt, updatedAt.
- Lists are ordered newest first. Filters: all, active, completed.
- Prefer update_todo over delete + create so other viewers keep their place.
- clear_todos without a type removes completed items only; pass type=all to empty the list.
- toggle_all_todos completes everything, unless everything is already completed, in which case it reopens everything.

Docs:
- livetodo://docs/index
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "livetodo://docs/index",
		Name:        "docs_index",
		Title:       "livetodo agent guide",
		Description: "What the todo tools do and how live clients observe them.",
		Content: `# livetodo: Agent Guide

## Tools

| tool | effect | broadcast |
|---|---|---|
| create_todo | adds an item | todoCreated |
| update_todo | changes text, completed or priority | todoUpdated |
| delete_todo | removes an item | todoDeleted |
| clear_todos | removes completed (or all) items | todosBulkDeleted |
| toggle_all_todos | completes or reopens every item | todosBulkUpdated |
| list_todos, get_todo, todo_stats | read only | none |

## Errors

- INVALID_INPUT: details names each bad field (text, priority, filter, type).
- TODO_NOT_FOUND: the id does not exist, possibly deleted by someone else. Re-list.

## Presence

People editing an item in the UI are shown to each other while they type. Tools do
not take part in presence; a tool edit simply lands as an update.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
