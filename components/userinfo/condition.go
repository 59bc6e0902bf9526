package userinfo

// DoneCondition signals data-ready once the search job has finished running,
// regardless of how many rows it produced. Without it an empty result set
// never notifies and the loading placeholder stays up forever.
func DoneCondition(job JobProperties) bool {
	return job.IsDone
}

// DefaultCondition is the provider's built-in rule: new rows were fetched.
func DefaultCondition(update JobUpdate) bool {
	return update.Results.Len() > 0
}

// ShouldNotify reports whether a provider must invoke the subscription
// handler for the update.
func (s Subscription) ShouldNotify(update JobUpdate) bool {
	if s.Condition != nil && s.Condition(update.Job) {
		return true
	}
	return DefaultCondition(update)
}
