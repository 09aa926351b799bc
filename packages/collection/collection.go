package collection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// DefaultFilename is the workspace file looked up when none is given.
const DefaultFilename = "hitpost.yaml"

var (
	ErrNotFound  = errors.New("request not found")
	ErrAmbiguous = errors.New("request name is ambiguous")
)

// Collection is a workspace of saved requests.
type Collection struct {
	Name              string            `yaml:"name,omitempty"`
	ActiveEnvironment string            `yaml:"activeEnvironment,omitempty"`
	Globals           []env.Variable    `yaml:"globals,omitempty"`
	Environments      []env.Environment `yaml:"environments,omitempty"`
	Folders           []Folder          `yaml:"folders,omitempty"`
	Requests          []Item            `yaml:"requests,omitempty"`
}

// Folder groups requests by id.
type Folder struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Requests []string `yaml:"requests,omitempty"`
}

// Header is a saved request header. Disabled headers are not sent.
type Header struct {
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
	Enabled bool   `yaml:"enabled"`
}

// Item is a saved request.
type Item struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Method      string       `yaml:"method"`
	URL         string       `yaml:"url"`
	Headers     []Header     `yaml:"headers,omitempty"`
	Params      []http.Param `yaml:"params,omitempty"`
	Auth        *http.Auth   `yaml:"auth,omitempty"`
	Body        string       `yaml:"body,omitempty"`
	BodyType    string       `yaml:"bodyType,omitempty"`
	TextSubtype string       `yaml:"textSubtype,omitempty"`
	FormSubtype string       `yaml:"formSubtype,omitempty"`
	BinaryData  string       `yaml:"binaryData,omitempty"`
	Timeout     uint64       `yaml:"timeout,omitempty"` // milliseconds
	CreatedAt   time.Time    `yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time    `yaml:"updatedAt,omitempty"`
}

// GenerateID returns an id of the form prefix_xxxxxxx.
func GenerateID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}

// Load reads a collection file.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", path, err)
	}

	var c Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing collection %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the collection, creating parent directories as needed.
func (c *Collection) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Find returns the request whose id or name matches nameOrID. Ids win over
// names; a name shared by several requests is ambiguous.
func (c *Collection) Find(nameOrID string) (*Item, error) {
	for i := range c.Requests {
		if c.Requests[i].ID == nameOrID {
			return &c.Requests[i], nil
		}
	}

	var found *Item
	for i := range c.Requests {
		if !strings.EqualFold(c.Requests[i].Name, nameOrID) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, nameOrID)
		}
		found = &c.Requests[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}
	return found, nil
}

// Add stores item, assigning an id and timestamps when missing, and files it
// under folder when folder is not empty. The folder is created on demand.
func (c *Collection) Add(item Item, folder string) *Item {
	now := time.Now().UTC()
	if item.ID == "" {
		item.ID = GenerateID("request")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	c.Requests = append(c.Requests, item)

	if folder != "" {
		f := c.folder(folder)
		f.Requests = append(f.Requests, item.ID)
	}
	return &c.Requests[len(c.Requests)-1]
}

func (c *Collection) folder(name string) *Folder {
	for i := range c.Folders {
		if strings.EqualFold(c.Folders[i].Name, name) || c.Folders[i].ID == name {
			return &c.Folders[i]
		}
	}
	c.Folders = append(c.Folders, Folder{ID: GenerateID("folder"), Name: name})
	return &c.Folders[len(c.Folders)-1]
}

// FolderOf returns the name of the folder holding the request, if any.
func (c *Collection) FolderOf(id string) string {
	for _, f := range c.Folders {
		for _, r := range f.Requests {
			if r == id {
				return f.Name
			}
		}
	}
	return ""
}

// Environment returns the environment matching name or id, or nil.
func (c *Collection) Environment(name string) *env.Environment {
	for i := range c.Environments {
		if c.Environments[i].ID == name || strings.EqualFold(c.Environments[i].Name, name) {
			return &c.Environments[i]
		}
	}
	return nil
}

// Resolver builds the variable resolver for envName, falling back to the
// active environment when envName is empty.
func (c *Collection) Resolver(envName string) (*env.Resolver, error) {
	if envName == "" {
		envName = c.ActiveEnvironment
	}
	var active *env.Environment
	if envName != "" {
		active = c.Environment(envName)
		if active == nil {
			return nil, fmt.Errorf("environment not found: %s", envName)
		}
	}
	return env.ForEnvironment(c.Globals, active), nil
}

// Wire converts the item into its wire shape without resolving variables.
func (item *Item) Wire() http.WireRequest {
	headers := make(map[string]string)
	for _, h := range item.Headers {
		if h.Enabled && strings.TrimSpace(h.Key) != "" {
			headers[h.Key] = h.Value
		}
	}

	w := http.WireRequest{
		Method:  item.Method,
		URL:     item.URL,
		Headers: headers,
	}
	if item.Body != "" {
		body := item.Body
		w.Body = &body
	}
	if item.BodyType != "" {
		w.BodyType = strPtr(item.BodyType)
	}
	if item.TextSubtype != "" {
		w.TextSubtype = strPtr(item.TextSubtype)
	}
	if item.FormSubtype != "" {
		w.FormSubtype = strPtr(item.FormSubtype)
	}
	if item.BinaryData != "" {
		w.BinaryData = strPtr(item.BinaryData)
	}
	if item.Timeout > 0 {
		timeout := item.Timeout
		w.Timeout = &timeout
	}
	return w
}

func strPtr(s string) *string {
	return &s
}
