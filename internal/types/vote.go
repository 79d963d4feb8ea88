package types

// ApplyVote moves voter's vote to the option with the given id. The voter is
// removed from every option's vote list first, so a user holds at most one
// vote per poll and changing a vote is the same operation as casting one.
// Returns false when no option has that id, in which case options are
// returned unchanged.
//
// The gateway and the client-side reconciler both use this rule, which is
// what makes an optimistic local vote agree with the canonical broadcast.
func ApplyVote(options []PollOption, voter User, optionId string) ([]PollOption, bool) {
	target := -1
	for i := range options {
		if options[i].Id == optionId {
			target = i
			break
		}
	}
	if target == -1 {
		return options, false
	}

	updated := make([]PollOption, len(options))
	for i, opt := range options {
		votes := make([]User, 0, len(opt.Votes))
		for _, v := range opt.Votes {
			if v.Id != voter.Id {
				votes = append(votes, v)
			}
		}
		updated[i] = PollOption{Id: opt.Id, Text: opt.Text, Votes: votes}
	}
	updated[target].Votes = append(updated[target].Votes, voter)

	return updated, true
}
