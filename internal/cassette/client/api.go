package client

import (
	"context"
	"encoding/json"
	"strconv"
)

// FetchCSRFToken probes the token endpoint and returns the token the
// server put in the CSRFHeaderName response header. A missing header
// yields "" and no error. The token is not installed; pass it to
// SetCSRFToken.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.Head(ctx, CSRFTokenPath)
	if err != nil {
		return "", err
	}
	return resp.Header.Get(CSRFHeaderName), nil
}

// SetCSRFToken installs token on every request this client issues from
// now on. A later call overwrites it; "" stops the header being sent.
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

// CSRFToken returns the currently installed token.
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// FetchIdentity returns the whole payload of the identity endpoint.
func (c *Client) FetchIdentity(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Get(ctx, DataPath)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// FetchActiveDevices returns the active-devices response body verbatim.
func (c *Client) FetchActiveDevices(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Get(ctx, ActiveDevicesPath)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// FetchPlayerStates returns the "states" field of the player-states
// response, never the enclosing object. If the field is absent the result
// is nil with no error.
func (c *Client) FetchPlayerStates(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Get(ctx, PlayerStatesPath)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		States json.RawMessage `json:"states"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, err
	}
	return envelope.States, nil
}

// StorePlayerState asks the server to store the current player state in a
// new slot.
func (c *Client) StorePlayerState(ctx context.Context) (*Response, error) {
	return c.Post(ctx, PlayerStatesPath)
}

// UpdatePlayerState overwrites slot with the current player state.
func (c *Client) UpdatePlayerState(ctx context.Context, slot int) (*Response, error) {
	return c.Put(ctx, slotPath(slot))
}

// DeletePlayerState removes slot.
func (c *Client) DeletePlayerState(ctx context.Context, slot int) (*Response, error) {
	return c.Delete(ctx, slotPath(slot))
}

// RestoreFromPlayerState resumes playback from slot. deviceID is optional;
// when empty the server picks the device.
func (c *Client) RestoreFromPlayerState(ctx context.Context, slot int, deviceID string) (*Response, error) {
	return c.Post(ctx, RestorePath(slot, deviceID))
}

// DeleteYourData deletes everything the service stores about the caller.
func (c *Client) DeleteYourData(ctx context.Context) (*Response, error) {
	return c.Delete(ctx, DataPath)
}

// RestorePath returns the restore URL path for slot, carrying a deviceID
// query parameter only if deviceID is set.
func RestorePath(slot int, deviceID string) string {
	params := map[string]string{}
	if deviceID != "" {
		params["deviceID"] = deviceID
	}
	return BuildURL(slotPath(slot)+"/restore", params)
}

func slotPath(slot int) string {
	return PlayerStatesPath + "/" + strconv.Itoa(slot)
}
