package server

import (
	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/types"
)

// Converters from stored records to the identity-resolved wire shape. The
// store joins names and avatars on every read, so broadcasts never carry
// stale identity data.

func ToMessage(m database.Message) types.Message {
	return types.Message{
		Id:     m.ExternalId,
		RoomId: m.RoomExternal,
		Sender: types.User{
			Id:                m.SenderId,
			Name:              m.SenderName,
			ProfilePictureUrl: m.SenderPicture,
		},
		Text:      m.Text,
		Timestamp: m.CreatedAt,
	}
}

func ToTodo(t database.Todo) types.Todo {
	todo := types.Todo{
		Id:          t.ExternalId,
		RoomId:      t.RoomExternal,
		Text:        t.Text,
		IsCompleted: t.IsCompleted,
		CreatedBy: types.User{
			Id:                t.CreatedById,
			Name:              t.CreatedByName,
			ProfilePictureUrl: t.CreatedByPicture,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if t.CompletedById.Valid {
		todo.CompletedBy = &types.User{
			Id:   int(t.CompletedById.Int64),
			Name: t.CompletedByName.String,
		}
	}

	return todo
}

func ToPoll(p database.Poll) types.Poll {
	poll := types.Poll{
		Id:       p.ExternalId,
		RoomId:   p.RoomExternal,
		Question: p.Question,
		CreatedBy: types.User{
			Id:                p.CreatedById,
			Name:              p.CreatedByName,
			ProfilePictureUrl: p.CreatedByPicture,
		},
		Options:   make([]types.PollOption, 0, len(p.Options)),
		CreatedAt: p.CreatedAt,
	}

	for _, opt := range p.Options {
		votes := make([]types.User, 0, len(opt.Votes))
		for _, v := range opt.Votes {
			votes = append(votes, types.User{
				Id:                v.Id,
				Name:              v.Name,
				ProfilePictureUrl: v.ProfilePictureUrl,
			})
		}
		poll.Options = append(poll.Options, types.PollOption{
			Id:    opt.ExternalId,
			Text:  opt.Text,
			Votes: votes,
		})
	}

	return poll
}
