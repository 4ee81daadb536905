package repository

// Repositories groups every store the payment service needs.
// Both storage drivers (postgres, bolt) return one of these.
type Repositories struct {
	Ledger      LedgerRepository
	Users       UserRepository
	Masterclass MasterclassRepository
	Enrollment  EnrollmentRepository
	Reminder    ReminderRepository
}
