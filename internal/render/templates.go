package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var embedded embed.FS

// Templates returns the built-in templates rooted at the template directory.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

const templateExt = ".html"

// Template names used by the task pages.
const (
	TemplateTasks      = "tasks"
	TemplateTaskItem   = "task_item"
	TemplateTaskStatus = "task_status"
)
