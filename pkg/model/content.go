package model

import "encoding/json"

// Content is the message payload: either a single text/URL string or an
// ordered list of URLs for multi-image sends. The JSON form is a bare
// string for the single case and an array for the multiple case, matching
// what clients historically stored in the content column.
type Content struct {
	parts []string
}

func TextContent(s string) Content {
	return Content{parts: []string{s}}
}

func URLContent(urls ...string) Content {
	parts := make([]string, len(urls))
	copy(parts, urls)
	return Content{parts: parts}
}

// ContentFromParts rebuilds a Content from its stored list form.
func ContentFromParts(parts []string) Content {
	return URLContent(parts...)
}

// Single returns the payload and true when the content is a single string.
func (c Content) Single() (string, bool) {
	if len(c.parts) == 1 {
		return c.parts[0], true
	}
	return "", false
}

// Parts returns the payload as an ordered list, single or not.
func (c Content) Parts() []string {
	out := make([]string, len(c.parts))
	copy(out, c.parts)
	return out
}

func (c Content) IsEmpty() bool {
	if len(c.parts) == 0 {
		return true
	}
	for _, p := range c.parts {
		if p != "" {
			return false
		}
	}
	return true
}

func (c Content) MarshalJSON() ([]byte, error) {
	if s, ok := c.Single(); ok {
		return json.Marshal(s)
	}
	return json.Marshal(c.parts)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.parts = []string{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	c.parts = list
	return nil
}
