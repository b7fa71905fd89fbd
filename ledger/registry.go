package ledger

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"

	"github.com/qinglongcn/vitalchain/name"
	"github.com/qinglongcn/vitalchain/resource"
)

var (
	deployPrefix = []byte("deploy-") // 代币部署记录
	supplyPrefix = []byte("supply-") // 代币已铸造总量
	namePrefix   = []byte("name-")   // 名称注册记录
)

// StorageReader 只读的元数据访问
type StorageReader interface {
	StorageGet(key []byte) ([]byte, bool, error)
}

// Deployment 代币部署记录
type Deployment struct {
	Tag    name.Name
	Height int32 // 部署所在区块高度
	Policy resource.MintPolicy
}

// MarshalBinary 以 borsh 编码部署记录
func (d *Deployment) MarshalBinary() ([]byte, error) {
	return resource.MarshalRecord(*d)
}

// DecodeDeployment 解码部署记录
func DecodeDeployment(b []byte) (*Deployment, error) {
	d, err := resource.UnmarshalRecord[Deployment](b)
	if err != nil {
		return nil, err
	}
	if d.Tag.Len() == 0 || !d.Tag.Valid() {
		return nil, resource.ErrInvalidTag
	}
	if err := d.Policy.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// NameRecord 名称注册记录，名称第一次被铸造时写入
type NameRecord struct {
	Height int32
	TxHash chainhash.Hash
}

// MarshalBinary 以 borsh 编码注册记录
func (r *NameRecord) MarshalBinary() ([]byte, error) {
	return resource.MarshalRecord(*r)
}

// DecodeNameRecord 解码注册记录
func DecodeNameRecord(b []byte) (*NameRecord, error) {
	r, err := resource.UnmarshalRecord[NameRecord](b)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeployKey 部署记录的存储键
func DeployKey(tag name.Name) []byte {
	return append(append([]byte{}, deployPrefix...), tag[:]...)
}

// SupplyKey 已铸造总量的存储键
func SupplyKey(tag name.Name) []byte {
	return append(append([]byte{}, supplyPrefix...), tag[:]...)
}

// NameKey 名称注册记录的存储键
func NameKey(n name.Name) []byte {
	return append(append([]byte{}, namePrefix...), n[:]...)
}

// DeployPrefix 所有部署记录共享的键前缀
func DeployPrefix() []byte {
	return append([]byte{}, deployPrefix...)
}

// GetDeployment 读取代币部署记录
func GetDeployment(l StorageReader, tag name.Name) (*Deployment, bool, error) {
	raw, ok, err := l.StorageGet(DeployKey(tag))
	if err != nil || !ok {
		return nil, false, err
	}
	d, err := DecodeDeployment(raw)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// GetNameRecord 读取名称注册记录
func GetNameRecord(l StorageReader, n name.Name) (*NameRecord, bool, error) {
	raw, ok, err := l.StorageGet(NameKey(n))
	if err != nil || !ok {
		return nil, false, err
	}
	r, err := DecodeNameRecord(raw)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// GetSupply 读取代币已铸造总量，未记录时为 0
func GetSupply(l StorageReader, tag name.Name) (*uint256.Int, error) {
	raw, ok, err := l.StorageGet(SupplyKey(tag))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return DecodeSupply(raw)
}

// EncodeSupply 编码已铸造总量
func EncodeSupply(v *uint256.Int) ([]byte, error) {
	return resource.MarshalRecord(*v)
}

// DecodeSupply 解码已铸造总量
func DecodeSupply(raw []byte) (*uint256.Int, error) {
	v, err := resource.UnmarshalRecord[uint256.Int](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
