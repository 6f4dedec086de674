// Package client provides thin request helpers over the chat protocol.
// Each call dials, sends one framed request, reads the single response
// and closes the connection, matching the server's one-shot design.
package client

import (
	"net"

	"github.com/guildd/guildd/internal/transport"
	"github.com/guildd/guildd/internal/wire"
)

// Client issues one-shot requests against a server address.
type Client struct {
	addr string
}

func New(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) do(tp wire.RequestType, cookie *wire.ID) (wire.Response, error) {
	nc, err := net.Dial("tcp", c.addr)
	if err != nil {
		return nil, err
	}
	conn := transport.New(nc)
	defer conn.Close()

	if err := conn.WriteValue(wire.Request{Type: tp, Cookie: cookie}); err != nil {
		return nil, err
	}
	return conn.ReadResponse()
}

func (c *Client) Ping(data string) (wire.Response, error) {
	return c.do(wire.Ping{Data: data}, nil)
}

func (c *Client) SignUp(username, password string) (wire.Response, error) {
	return c.do(wire.SignUp{Username: username, Password: password}, nil)
}

func (c *Client) SignIn(username, password string, userID wire.ID) (wire.Response, error) {
	return c.do(wire.SignIn{Username: username, Password: password, UserID: userID}, nil)
}

func (c *Client) SignOut(cookie wire.ID) (wire.Response, error) {
	return c.do(wire.SignOut{}, &cookie)
}

func (c *Client) NewGuild(name string, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.NewServer{Name: name}, &cookie)
}

func (c *Client) DeleteGuild(guildID, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.DeleteServer{ServerID: guildID}, &cookie)
}

func (c *Client) NewChannel(guildID wire.ID, name string, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.NewChannel{ServerID: guildID, Name: name}, &cookie)
}

func (c *Client) DeleteChannel(guildID wire.ID, name string, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.DeleteChannel{ServerID: guildID, Name: name}, &cookie)
}

func (c *Client) ListChannels(guildID, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.GetChannels{ServerID: guildID}, &cookie)
}

func (c *Client) SendMessage(guildID wire.ID, channel, content string, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.SendMessage{ServerID: guildID, Channel: channel, Content: content}, &cookie)
}

func (c *Client) GetMessages(guildID wire.ID, channel string, block uint32, cookie wire.ID) (wire.Response, error) {
	return c.do(wire.GetMessages{ServerID: guildID, Channel: channel, Block: block}, &cookie)
}
