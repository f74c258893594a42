package models

// TournamentUser is a participant-role record: a platform user attached to a
// tournament with moderation or streaming rights.
type TournamentUser struct {
	Notifier

	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	isStreamer  bool
	isModerator bool
	hidden      bool
}

type TournamentUserInit struct {
	ID          string
	Name        string
	Image       string
	IsStreamer  bool
	IsModerator bool
	Hidden      bool
}

func NewTournamentUser(init TournamentUserInit) *TournamentUser {
	return &TournamentUser{
		ID:          init.ID,
		Name:        init.Name,
		Image:       init.Image,
		isStreamer:  init.IsStreamer,
		isModerator: init.IsModerator,
		hidden:      init.Hidden,
	}
}

func (u *TournamentUser) IsStreamer() bool  { return u.isStreamer }
func (u *TournamentUser) IsModerator() bool { return u.isModerator }
func (u *TournamentUser) Hidden() bool      { return u.hidden }

func (u *TournamentUser) SetStreamer(v bool) {
	u.isStreamer = v
	u.Notify("isStreamer")
}

func (u *TournamentUser) SetModerator(v bool) {
	u.isModerator = v
	u.Notify("isModerator")
}

func (u *TournamentUser) SetHidden(v bool) {
	u.hidden = v
	u.Notify("hidden")
}
