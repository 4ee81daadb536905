package errors

// 공통 에러 코드 정의
const (
	// 일반적인 에러 코드
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// 재시도 가능한 일시적 장애 (저장소 경합, 외부 API 장애)
	ErrUnavailable = "UNAVAILABLE"
	// 현재 상태에서 허용되지 않는 상태 전이
	ErrFailedPrecondition = "FAILED_PRECONDITION"
)
