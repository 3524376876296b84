// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"context"
)

// Point is a screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type nameArgs struct {
	Name string `json:"name"`
}

type scrollArgs struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DY int     `json:"dy"`
}

type dragArgs struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type pathArgs struct {
	Path string `json:"path"`
}

func (c *Client) callWith(ctx context.Context, op string, args any) (*Response, error) {
	req, err := NewRequest(op, args)
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, req)
}

// Ping checks that seqd is alive.
func (c *Client) Ping(ctx context.Context) (*Response, error) {
	return c.callWith(ctx, "ping", nil)
}

// AppState returns the frontmost application state.
func (c *Client) AppState(ctx context.Context) (*Response, error) {
	return c.callWith(ctx, "app_state", nil)
}

// Perf returns daemon performance counters.
func (c *Client) Perf(ctx context.Context) (*Response, error) {
	return c.callWith(ctx, "perf", nil)
}

// OpenApp opens or focuses an application by name.
func (c *Client) OpenApp(ctx context.Context, name string) (*Response, error) {
	return c.callWith(ctx, "open_app", nameArgs{Name: name})
}

// OpenAppToggle opens an application, or switches back if it is already
// frontmost.
func (c *Client) OpenAppToggle(ctx context.Context, name string) (*Response, error) {
	return c.callWith(ctx, "open_app_toggle", nameArgs{Name: name})
}

// RunMacro runs a named seq macro.
func (c *Client) RunMacro(ctx context.Context, name string) (*Response, error) {
	return c.callWith(ctx, "run_macro", nameArgs{Name: name})
}

// Click left-clicks at p.
func (c *Client) Click(ctx context.Context, p Point) (*Response, error) {
	return c.callWith(ctx, "click", p)
}

// RightClick right-clicks at p.
func (c *Client) RightClick(ctx context.Context, p Point) (*Response, error) {
	return c.callWith(ctx, "right_click", p)
}

// DoubleClick double-clicks at p.
func (c *Client) DoubleClick(ctx context.Context, p Point) (*Response, error) {
	return c.callWith(ctx, "double_click", p)
}

// Move moves the pointer to p.
func (c *Client) Move(ctx context.Context, p Point) (*Response, error) {
	return c.callWith(ctx, "move", p)
}

// Scroll scrolls by dy at p.
func (c *Client) Scroll(ctx context.Context, p Point, dy int) (*Response, error) {
	return c.callWith(ctx, "scroll", scrollArgs{X: p.X, Y: p.Y, DY: dy})
}

// Drag drags from one point to another.
func (c *Client) Drag(ctx context.Context, from, to Point) (*Response, error) {
	return c.callWith(ctx, "drag", dragArgs{X1: from.X, Y1: from.Y, X2: to.X, Y2: to.Y})
}

// Screenshot captures the screen. An empty path lets seqd choose.
func (c *Client) Screenshot(ctx context.Context, path string) (*Response, error) {
	if path == "" {
		return c.callWith(ctx, "screenshot", nil)
	}
	return c.callWith(ctx, "screenshot", pathArgs{Path: path})
}
