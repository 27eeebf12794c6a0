package dialog

// Selection tokens understood by the engine. Preset tokens live in
// internal/agenda; item action tokens live in internal/render.
const (
	tokenCancel     = "cancel"
	tokenCancelEdit = "cancel_edit"

	tokenDateToday    = "t:today"
	tokenDateTomorrow = "t:tomorrow"
	tokenDateCustom   = "t:custom"

	tokenViewToday    = "lihat:today"
	tokenViewTomorrow = "lihat:besok"
	tokenViewWeek     = "lihat:7days"
	tokenViewCustom   = "lihat:custom"

	editFieldPrefix = "edit_field:"
	tokenEditDone   = editFieldPrefix + "done"

	tokenConfirmYes = "confirm_delete:yes"
	tokenConfirmNo  = "confirm_delete:no"
)

// viewWeekDays is how far "next 7 days" reaches past today.
const viewWeekDays = 7
